package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/logging"
)

// Cache stores extraction output by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects lazily to the Redis server at addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get implements Cache. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// CachingExtractor serves repeated extractions of the same file from a Cache.
// Cache failures are logged and bypassed.
type CachingExtractor struct {
	Inner Extractor
	Cache Cache
	TTL   time.Duration
}

// Name implements Extractor.
func (c *CachingExtractor) Name() string { return c.Inner.Name() }

// Key returns the cache key for doc: the file digest, roll kind and backend.
func (c *CachingExtractor) Key(doc Document) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "rollcheck:extract:" + c.Inner.Name() + ":" + string(doc.Kind) + ":" + hex.EncodeToString(sum[:]), nil
}

// Extract implements Extractor.
func (c *CachingExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	log := logging.FromContext(ctx)

	key, err := c.Key(doc)
	if err != nil {
		return nil, errors.NewExtractionError(c.Name(), doc.Path, err)
	}

	cached, ok, err := c.Cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("extraction cache read failed")
	case ok:
		var ext Extraction
		if err := json.Unmarshal(cached, &ext); err == nil {
			log.Debug().Str("key", key).Msg("extraction cache hit")
			return &ext, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	ext, err := c.Inner.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(ext)
	if err == nil {
		err = c.Cache.Set(ctx, key, data, c.TTL)
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("extraction cache write failed")
	}
	return ext, nil
}
