package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"SPLITENGINE_JWT_SECRET": "s3cret"})
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	want := Config{
		Port:            8080,
		DBPath:          "./data/splitengine.db",
		JWTSecret:       "s3cret",
		JWTTTL:          24 * time.Hour,
		LogLevel:        "info",
		DefaultCurrency: "USD",
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		IdempotencyTTL:  24 * time.Hour,
	}
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Addr())
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SPLITENGINE_PORT":             "9090",
		"SPLITENGINE_DB_PATH":          "/tmp/x.db",
		"SPLITENGINE_JWT_SECRET":       "s3cret",
		"SPLITENGINE_JWT_TTL":          "90m",
		"SPLITENGINE_LOG_LEVEL":        "debug",
		"SPLITENGINE_DEFAULT_CURRENCY": "EUR",
		"SPLITENGINE_RATE_LIMIT_RPS":   "0",
		"SPLITENGINE_IDEMPOTENCY_TTL":  "1h",
	})
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "/tmp/x.db" || cfg.JWTTTL != 90*time.Minute ||
		cfg.LogLevel != "debug" || cfg.DefaultCurrency != "EUR" ||
		cfg.RateLimitRPS != 0 || cfg.IdempotencyTTL != time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "parse env:"},
		{"empty secret", map[string]string{"SPLITENGINE_JWT_SECRET": ""}, "parse env:"},
		{"bad port", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_PORT": "http"}, "parse env:"},
		{"port out of range", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_PORT": "70000"}, "SPLITENGINE_PORT"},
		{"bad ttl", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_JWT_TTL": "-1h"}, "SPLITENGINE_JWT_TTL"},
		{"bad log level", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_LOG_LEVEL": "loud"}, "log level"},
		{"bad currency", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_DEFAULT_CURRENCY": "EURO"}, "SPLITENGINE_DEFAULT_CURRENCY"},
		{"negative rate", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_RATE_LIMIT_RPS": "-1"}, "SPLITENGINE_RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_RATE_LIMIT_BURST": "0"}, "SPLITENGINE_RATE_LIMIT_BURST"},
		{"bad idempotency ttl", map[string]string{"SPLITENGINE_JWT_SECRET": "x", "SPLITENGINE_IDEMPOTENCY_TTL": "0s"}, "SPLITENGINE_IDEMPOTENCY_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
