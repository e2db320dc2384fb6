package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "url without host",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "zero concurrency",
			mutate: func(cfg *Config) {
				cfg.Concurrency = 0
			},
			wantErr: "concurrency",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "empty data dir",
			mutate: func(cfg *Config) {
				cfg.DataDir = ""
			},
			wantErr: "data dir",
		},
		{
			name: "unknown image naming",
			mutate: func(cfg *Config) {
				cfg.ImageNaming = "uuid"
			},
			wantErr: "image naming",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRAWLER_TEST_STR", "hello")
	if value, ok := EnvString("CRAWLER_TEST_STR"); !ok || value != "hello" {
		t.Fatalf("EnvString = %q, %v", value, ok)
	}
	if _, ok := EnvString("CRAWLER_TEST_UNSET"); ok {
		t.Fatalf("unset variable should not report ok")
	}

	t.Setenv("CRAWLER_TEST_INT", "12")
	value, ok, err := EnvInt("CRAWLER_TEST_INT")
	if err != nil || !ok || value != 12 {
		t.Fatalf("EnvInt = %d, %v, %v", value, ok, err)
	}

	t.Setenv("CRAWLER_TEST_INT", "twelve")
	if _, _, err := EnvInt("CRAWLER_TEST_INT"); err == nil {
		t.Fatalf("expected parse error for non-numeric value")
	}
}
