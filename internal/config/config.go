package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/reconcile"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "rollcheck.yaml"

// Extraction backends.
const (
	BackendFile    = "file"
	BackendGemini  = "gemini"
	BackendMistral = "mistral"
)

// Config represents the top-level rollcheck.yaml configuration.
type Config struct {
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`

	// Secrets come from the environment only and are never saved.
	Secrets Secrets `yaml:"-"`
}

// ReconcileConfig holds the comparison tunables.
type ReconcileConfig struct {
	MaterialityThreshold string `yaml:"materiality_threshold"` // decimal string, e.g. "1.00"
}

// ExtractionConfig selects and tunes the document-understanding backend.
type ExtractionConfig struct {
	Backend           string        `yaml:"backend"`
	Model             string        `yaml:"model"`
	OCRModel          string        `yaml:"ocr_model"`
	ChatModel         string        `yaml:"chat_model"`
	MistralBaseURL    string        `yaml:"mistral_base_url,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CacheConfig controls the extraction cache. An empty RedisAddr disables it.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, json or console
}

// Secrets are API credentials for the extraction backends.
type Secrets struct {
	GeminiAPIKey  string
	MistralAPIKey string
}

// Load reads a rollcheck.yaml file from disk. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Reconcile: ReconcileConfig{
			MaterialityThreshold: "1.00",
		},
		Extraction: ExtractionConfig{
			Backend:           BackendFile,
			Model:             "gemini-2.5-flash",
			OCRModel:          "mistral-ocr-latest",
			ChatModel:         "mistral-small-latest",
			RequestsPerSecond: 1,
			Timeout:           2 * time.Minute,
		},
		Cache: CacheConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:               ":8080",
			RateLimitPerMinute: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Threshold returns the parsed materiality threshold.
func (c *Config) Threshold() (decimal.Decimal, error) {
	return reconcile.ParseThreshold(c.Reconcile.MaterialityThreshold)
}

// Validate checks every tunable and returns the first ConfigurationError.
func (c *Config) Validate() error {
	if _, err := c.Threshold(); err != nil {
		return err
	}
	switch c.Extraction.Backend {
	case BackendFile, BackendGemini, BackendMistral:
	default:
		return errors.NewConfigurationError("extraction.backend", c.Extraction.Backend,
			"must be one of: file, gemini, mistral")
	}
	if c.Extraction.RequestsPerSecond <= 0 {
		return errors.NewConfigurationError("extraction.requests_per_second",
			fmt.Sprint(c.Extraction.RequestsPerSecond), "must be positive")
	}
	if c.Extraction.Timeout <= 0 {
		return errors.NewConfigurationError("extraction.timeout", c.Extraction.Timeout.String(), "must be positive")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return errors.NewConfigurationError("server.rate_limit_per_minute",
			fmt.Sprint(c.Server.RateLimitPerMinute), "must not be negative")
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		return errors.NewConfigurationError("cache.ttl", c.Cache.TTL.String(), "must be positive when redis_addr is set")
	}
	return nil
}
