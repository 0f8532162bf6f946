package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flightwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Monitor.Interval != 30*time.Minute || cfg.Monitor.HistorySize != 48 {
		t.Errorf("monitor defaults = %+v", cfg.Monitor)
	}
	if cfg.Monitor.DropThreshold != 50 || cfg.Monitor.RiseThreshold != 100 {
		t.Errorf("alert thresholds = %v/%v, want 50/100", cfg.Monitor.DropThreshold, cfg.Monitor.RiseThreshold)
	}
	if cfg.RateLimit.RequestsPerMinute != 100 || cfg.RateLimit.RequestsPerHour != 5000 {
		t.Errorf("rate limit defaults = %+v", cfg.RateLimit)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TEST_AMADEUS_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "12")

	path := writeFile(t, `
server:
  port: "9090"
providers:
  amadeus:
    client_id: abc
    client_secret: ${TEST_AMADEUS_SECRET}
  timeout: 5s
monitor:
  interval: 10m
  drop_threshold: 25
store:
  backend: none
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Providers.Amadeus.ClientSecret != "s3cret" {
		t.Errorf("client secret = %q, want expanded value", cfg.Providers.Amadeus.ClientSecret)
	}
	if cfg.Providers.Timeout != 5*time.Second {
		t.Errorf("provider timeout = %v", cfg.Providers.Timeout)
	}
	if cfg.Monitor.Interval != 10*time.Minute || cfg.Monitor.DropThreshold != 25 {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}
	if cfg.Monitor.RiseThreshold != 100 {
		t.Errorf("unset field lost its default: rise = %v", cfg.Monitor.RiseThreshold)
	}
	if cfg.RateLimit.RequestsPerMinute != 12 {
		t.Errorf("env override ignored: rpm = %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SKYSCANNER_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SKYSCANNER_API_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Providers.Skyscanner.APIKey != "from-dotenv" {
		t.Errorf("api key = %q, want value from .env", cfg.Providers.Skyscanner.APIKey)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }},
		{"tiny history", func(c *Config) { c.Monitor.HistorySize = 1 }},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }},
		{"zero timeout", func(c *Config) { c.Providers.Timeout = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "cassandra" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "soon")
	if got := getEnvAsInt("X_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt() = %d, want 7", got)
	}
	if got := getEnvDuration("X_DUR", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %v, want 1s", got)
	}
}
