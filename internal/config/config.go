// Package config loads runtime settings: built-in defaults, then an optional
// YAML file named by VIDEOGATE_CONFIG, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = "8080"
	DefaultStoreURL        = "memory://"
	DefaultGateDelay       = 250 * time.Millisecond
	DefaultRefreshInterval = 4 * time.Hour
	DefaultWatchURL        = "https://www.youtube.com/"
	DefaultLogLevel        = "info"

	MinJWTSecretLength = 32
)

type S3Config struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	Region       string `yaml:"region,omitempty"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	MaxReadBytes int64  `yaml:"max_read_bytes,omitempty"`
}

// Configured reports whether s3:// remote blocklists can be read.
func (s S3Config) Configured() bool {
	return s.Endpoint != "" || s.AccessKey != "" || s.Region != ""
}

type Config struct {
	Port                string        `yaml:"port,omitempty"`
	BaseURL             string        `yaml:"base_url,omitempty"`
	StoreURL            string        `yaml:"store_url,omitempty"`
	GateDelay           time.Duration `yaml:"gate_delay,omitempty"`
	RefreshInterval     time.Duration `yaml:"refresh_interval,omitempty"`
	JWTSecret           string        `yaml:"jwt_secret,omitempty"`
	OptionsPasswordHash string        `yaml:"options_password_hash,omitempty"`
	BlocklistFile       string        `yaml:"blocklist_file,omitempty"`
	CDPURL              string        `yaml:"cdp_url,omitempty"`
	WatchURL            string        `yaml:"watch_url,omitempty"`
	LogFile             string        `yaml:"log_file,omitempty"`
	LogLevel            string        `yaml:"log_level,omitempty"`
	S3                  S3Config      `yaml:"s3,omitempty"`
}

func Default() Config {
	return Config{
		Port:            DefaultPort,
		BaseURL:         "http://localhost:" + DefaultPort,
		StoreURL:        DefaultStoreURL,
		GateDelay:       DefaultGateDelay,
		RefreshInterval: DefaultRefreshInterval,
		WatchURL:        DefaultWatchURL,
		LogLevel:        DefaultLogLevel,
		S3:              S3Config{MaxReadBytes: 5 << 20},
	}
}

// Load reads the file named by VIDEOGATE_CONFIG, if any, and applies
// environment overrides on top.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("VIDEOGATE_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// LoadFrom reads a YAML file over the defaults. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.GateDelay <= 0 {
		return fmt.Errorf("gate delay must be positive, got %s", c.GateDelay)
	}
	if c.RefreshInterval < time.Minute {
		return fmt.Errorf("refresh interval must be at least 1m, got %s", c.RefreshInterval)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.OptionsPasswordHash != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when the options password is set")
	}
	return nil
}

func applyEnv(c *Config) {
	c.Port = getEnv("PORT", c.Port)
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.StoreURL = getEnv("STORE_URL", c.StoreURL)
	c.GateDelay = getEnvDuration("VIDEOGATE_GATE_DELAY", c.GateDelay)
	c.RefreshInterval = getEnvDuration("VIDEOGATE_REFRESH_INTERVAL", c.RefreshInterval)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.OptionsPasswordHash = getEnv("OPTIONS_PASSWORD_HASH", c.OptionsPasswordHash)
	c.BlocklistFile = getEnv("BLOCKLIST_FILE", c.BlocklistFile)
	c.CDPURL = getEnv("CDP_URL", c.CDPURL)
	c.WatchURL = getEnv("WATCH_URL", c.WatchURL)
	c.LogFile = getEnv("VIDEOGATE_LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.S3.Endpoint = getEnv("S3_ENDPOINT", c.S3.Endpoint)
	c.S3.Region = getEnv("S3_REGION", c.S3.Region)
	c.S3.AccessKey = getEnv("S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = getEnv("S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.MaxReadBytes = getEnvInt64("S3_MAX_READ_BYTES", c.S3.MaxReadBytes)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("500ms", "4h") or bare milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
