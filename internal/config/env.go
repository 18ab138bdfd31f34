package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cleared-dev/rollcheck/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g.
// ROLLCHECK_RECONCILE_MATERIALITY_THRESHOLD.
const EnvPrefix = "ROLLCHECK"

// Resolve loads configuration in order of precedence:
// 1. Environment variables (including .env and .env.local)
// 2. The config file at path, or ./rollcheck.yaml when path is empty
// 3. Defaults
// The result is validated.
func Resolve(path string) (*Config, error) {
	LoadEnvFiles()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads .env then .env.local from the working directory.
// Variables already set in the environment win.
func LoadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

type override struct {
	key   string
	apply func(cfg *Config, value string) error
}

var overrides = []override{
	{"reconcile.materiality_threshold", func(c *Config, s string) error { c.Reconcile.MaterialityThreshold = s; return nil }},
	{"extraction.backend", func(c *Config, s string) error { c.Extraction.Backend = strings.ToLower(s); return nil }},
	{"extraction.model", func(c *Config, s string) error { c.Extraction.Model = s; return nil }},
	{"extraction.ocr_model", func(c *Config, s string) error { c.Extraction.OCRModel = s; return nil }},
	{"extraction.chat_model", func(c *Config, s string) error { c.Extraction.ChatModel = s; return nil }},
	{"extraction.mistral_base_url", func(c *Config, s string) error { c.Extraction.MistralBaseURL = s; return nil }},
	{"extraction.requests_per_second", func(c *Config, s string) error {
		f, err := strconv.ParseFloat(s, 64)
		c.Extraction.RequestsPerSecond = f
		return err
	}},
	{"extraction.timeout", func(c *Config, s string) error {
		d, err := time.ParseDuration(s)
		c.Extraction.Timeout = d
		return err
	}},
	{"cache.redis_addr", func(c *Config, s string) error { c.Cache.RedisAddr = s; return nil }},
	{"cache.ttl", func(c *Config, s string) error {
		d, err := time.ParseDuration(s)
		c.Cache.TTL = d
		return err
	}},
	{"server.addr", func(c *Config, s string) error { c.Server.Addr = s; return nil }},
	{"server.rate_limit_per_minute", func(c *Config, s string) error {
		n, err := strconv.Atoi(s)
		c.Server.RateLimitPerMinute = n
		return err
	}},
	{"log.level", func(c *Config, s string) error { c.Log.Level = s; return nil }},
	{"log.format", func(c *Config, s string) error { c.Log.Format = s; return nil }},
}

// ApplyEnv overlays ROLLCHECK_* environment variables onto cfg and reads the
// API keys. An override that cannot be parsed is a ConfigurationError.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for _, o := range overrides {
		if err := v.BindEnv(o.key); err != nil {
			return errors.NewConfigurationError(o.key, "", err.Error())
		}
		value := strings.TrimSpace(v.GetString(o.key))
		if value == "" {
			continue
		}
		if err := o.apply(cfg, value); err != nil {
			return errors.NewConfigurationError(o.key, value, "cannot parse environment override")
		}
	}

	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("mistral_api_key", "MISTRAL_API_KEY")
	cfg.Secrets = Secrets{
		GeminiAPIKey:  v.GetString("gemini_api_key"),
		MistralAPIKey: v.GetString("mistral_api_key"),
	}
	return nil
}
