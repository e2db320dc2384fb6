package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Image filename policies.
const (
	ImageNameByCode  = "code"
	ImageNameByTitle = "title"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL     string
	Concurrency int // maximum category pipelines in flight
	Timeout     time.Duration
	UserAgent   string
	DataDir     string
	ImageNaming string // code or title
	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://books.toscrape.com/",
		Concurrency: 8,
		Timeout:     10 * time.Second,
		UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		DataDir:     "data",
		ImageNaming: ImageNameByCode,
		MetricsAddr: "",
		Verbose:     false,
	}
}

// Host returns the host of the configured base URL.
func (c *Config) Host() (string, error) {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base URL must include a host")
	}
	return parsed.Host, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if _, err := c.Host(); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if c.ImageNaming != ImageNameByCode && c.ImageNaming != ImageNameByTitle {
		return fmt.Errorf("image naming must be %s or %s", ImageNameByCode, ImageNameByTitle)
	}
	return nil
}

// EnvString reads an environment override; ok reports whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
