package extract

import (
	"context"

	"github.com/cleared-dev/rollcheck/internal/config"
	"github.com/cleared-dev/rollcheck/internal/errors"
)

// New builds the extractor selected by cfg. Model-backed extractors are
// wrapped in a Redis cache when cache.redis_addr is set.
func New(ctx context.Context, cfg *config.Config) (Extractor, error) {
	var ext Extractor
	switch cfg.Extraction.Backend {
	case config.BackendFile, "":
		return FileExtractor{}, nil
	case config.BackendGemini:
		if cfg.Secrets.GeminiAPIKey == "" {
			return nil, errors.NewConfigurationError("GEMINI_API_KEY", "", "required for the gemini backend")
		}
		g, err := NewGeminiExtractor(ctx, cfg.Secrets.GeminiAPIKey, cfg.Extraction.Model)
		if err != nil {
			return nil, err
		}
		ext = g
	case config.BackendMistral:
		if cfg.Secrets.MistralAPIKey == "" {
			return nil, errors.NewConfigurationError("MISTRAL_API_KEY", "", "required for the mistral backend")
		}
		ext = NewMistralExtractor(cfg.Secrets.MistralAPIKey, MistralOptions{
			BaseURL:           cfg.Extraction.MistralBaseURL,
			OCRModel:          cfg.Extraction.OCRModel,
			ChatModel:         cfg.Extraction.ChatModel,
			RequestsPerSecond: cfg.Extraction.RequestsPerSecond,
			Timeout:           cfg.Extraction.Timeout,
			RetryMax:          3,
		})
	default:
		return nil, errors.NewConfigurationError("extraction.backend", cfg.Extraction.Backend, "unknown backend")
	}

	if cfg.Cache.RedisAddr != "" {
		ext = &CachingExtractor{
			Inner: ext,
			Cache: NewRedisCache(cfg.Cache.RedisAddr, "", 0),
			TTL:   cfg.Cache.TTL,
		}
	}
	return ext, nil
}
