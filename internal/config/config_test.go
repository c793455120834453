package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetEnvReturnsValueWhenSet(t *testing.T) {
	const key = "TEST_GETENV_SET"
	const expected = "custom-value"

	t.Setenv(key, expected)

	result := getEnv(key, "fallback")
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestGetEnvReturnsFallbackWhenUnset(t *testing.T) {
	const key = "TEST_GETENV_UNSET"
	const fallback = "default-value"

	result := getEnv(key, fallback)
	if result != fallback {
		t.Errorf("expected fallback %q, got %q", fallback, result)
	}
}

func TestGetEnvReturnsFallbackWhenEmpty(t *testing.T) {
	const key = "TEST_GETENV_EMPTY"
	const fallback = "default-value"

	t.Setenv(key, "")

	result := getEnv(key, fallback)
	if result != fallback {
		t.Errorf("expected fallback %q for empty env var, got %q", fallback, result)
	}
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("TEST_INT64_OK", "42")
	t.Setenv("TEST_INT64_BAD", "many")

	if got := getEnvInt64("TEST_INT64_OK", 1); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := getEnvInt64("TEST_INT64_BAD", 1); got != 1 {
		t.Errorf("expected fallback for unparsable value, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"go duration", "500ms", 500 * time.Millisecond},
		{"hours", "4h", 4 * time.Hour},
		{"bare milliseconds", "300", 300 * time.Millisecond},
		{"garbage", "soon", time.Second},
		{"unset", "", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvDuration("TEST_DURATION", time.Second); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIDEOGATE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GateDelay != DefaultGateDelay {
		t.Errorf("expected default gate delay, got %s", cfg.GateDelay)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("expected default refresh interval, got %s", cfg.RefreshInterval)
	}
	if cfg.StoreURL != DefaultStoreURL {
		t.Errorf("expected memory store, got %q", cfg.StoreURL)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videogate.yaml")
	doc := "port: \"9000\"\ngate_delay: 400ms\nstore_url: sqlite:///tmp/vg.db\ns3:\n  region: us-east-1\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIDEOGATE_CONFIG", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected env to override file port, got %q", cfg.Port)
	}
	if cfg.GateDelay != 400*time.Millisecond {
		t.Errorf("expected 400ms from file, got %s", cfg.GateDelay)
	}
	if cfg.StoreURL != "sqlite:///tmp/vg.db" {
		t.Errorf("unexpected store url %q", cfg.StoreURL)
	}
	if !cfg.S3.Configured() || cfg.S3.Region != "us-east-1" {
		t.Errorf("expected s3 region from file, got %+v", cfg.S3)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("expected default refresh interval to survive, got %s", cfg.RefreshInterval)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected defaults, got port %q", cfg.Port)
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero delay", func(c *Config) { c.GateDelay = 0 }, true},
		{"refresh too frequent", func(c *Config) { c.RefreshInterval = time.Second }, true},
		{"password without secret", func(c *Config) { c.OptionsPasswordHash = "$2a$10$x" }, true},
		{"password with secret", func(c *Config) {
			c.OptionsPasswordHash = "$2a$10$x"
			c.JWTSecret = strings.Repeat("s", MinJWTSecretLength)
		}, false},
		{"short secret", func(c *Config) { c.JWTSecret = "s" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
