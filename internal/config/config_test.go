package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Errorf("server defaults = %q/%q/%q", cfg.Port, cfg.GinMode, cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.DBPath != "canvass.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Remote.Timeout != 20*time.Second {
		t.Errorf("remote timeout = %v", cfg.Remote.Timeout)
	}
	if !cfg.RosterHasHeader {
		t.Error("RosterHasHeader should default to true")
	}
	if cfg.DevBypassAuth {
		t.Error("DevBypassAuth must default off")
	}
	if cfg.RetryInterval != 30*time.Second {
		t.Errorf("RetryInterval = %v", cfg.RetryInterval)
	}
	if cfg.Remote.BackupURL != "" {
		t.Error("backup channel should default disabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("REMOTE_API_BASE", "https://api.other.org/")
	t.Setenv("ROSTER_HAS_HEADER", "false")
	t.Setenv("RETRY_INTERVAL", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, , https://b.example")
	t.Setenv("DEV_BYPASS_AUTH", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; warning must normalize to warn", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q; want leading slash and no trailing", cfg.APIBasePath)
	}
	if cfg.Remote.APIBase != "https://api.other.org" {
		t.Errorf("APIBase = %q; trailing slash must be stripped", cfg.Remote.APIBase)
	}
	if cfg.RosterHasHeader {
		t.Error("RosterHasHeader override ignored")
	}
	if cfg.RetryInterval != 5*time.Second {
		t.Errorf("RetryInterval = %v", cfg.RetryInterval)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.DevBypassAuth {
		t.Error("DevBypassAuth override ignored")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		k, v string
		want string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"bad retry interval", "RETRY_INTERVAL", "-1s", "RETRY_INTERVAL"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "2.5", "OTEL_TRACES_SAMPLER_ARG"},
		{"bad rate burst", "RATE_BURST", "0", "RATE_BURST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.k, tc.v)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v; want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoad_InvalidGinModeFallsBack(t *testing.T) {
	t.Setenv("GIN_MODE", "turbo")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q; want release fallback", cfg.GinMode)
	}
}

func Test_normalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api/", "/api"},
		{"/api/v1", "/api/v1"},
		{"  /api/v1/  ", "/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
