// Package fetch wraps the HTTP transport behind a single-attempt fetcher.
// A fetch has exactly three outcomes: a body, a StatusError, or a ConnError.
// Retrying is a caller concern and deliberately not implemented here.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-catalog-crawler/config"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = int64(10 * 1024 * 1024)

// Observer is notified after each fetch with its outcome label and duration.
type Observer func(outcome string, d time.Duration)

// Client issues single-attempt GET requests over a shared transport.
type Client struct {
	http      *http.Client
	userAgent string
	observe   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper, used in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// WithObserver registers a per-fetch observer.
func WithObserver(fn Observer) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// New builds a fetcher configured from cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: cfg.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues one GET request and returns the raw response body.
// Errors are *StatusError for non-2xx responses and *ConnError for
// transport failures; both are expected outcomes for callers.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, rawURL)
	if c.observe != nil {
		c.observe(Outcome(err), time.Since(start))
	}
	return body, err
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &ConnError{URL: rawURL, Err: err}
	}
	return body, nil
}
