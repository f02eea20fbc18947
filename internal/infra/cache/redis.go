// Package cache keeps recently generated quizzes in Redis, keyed by article URL,
// so repeat requests skip the database as well as the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"wiki-quiz/internal/domain/entity"
	pkgconfig "wiki-quiz/pkg/config"
)

// KeyPrefix namespaces every cache entry.
const KeyPrefix = "wikiquiz:quiz:url:"

// DefaultTTL bounds how long a cached quiz is served before the store is consulted again.
const DefaultTTL = 24 * time.Hour

// Config holds the Redis cache settings.
type Config struct {
	// URL is a redis:// or rediss:// URL. Empty disables the cache.
	URL string
	TTL time.Duration
}

// LoadConfigFromEnv reads REDIS_URL and QUIZ_CACHE_TTL.
func LoadConfigFromEnv() Config {
	return Config{
		URL: pkgconfig.GetEnvString("REDIS_URL", ""),
		TTL: pkgconfig.GetEnvDuration("QUIZ_CACHE_TTL", DefaultTTL),
	}
}

// Enabled reports whether a Redis URL was configured.
func (c Config) Enabled() bool { return c.URL != "" }

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opt.Addr, err)
	}
	return client, nil
}

// RedisQuizCache stores quizzes as JSON strings under KeyPrefix+url.
type RedisQuizCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisQuizCache wraps a connected client. A non-positive ttl falls back to DefaultTTL.
func NewRedisQuizCache(client redis.Cmdable, ttl time.Duration) *RedisQuizCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisQuizCache{client: client, ttl: ttl}
}

func key(url string) string { return KeyPrefix + url }

// Get returns the cached quiz for url. A miss is (nil, false, nil).
// Entries that no longer decode are dropped and reported as a miss.
func (c *RedisQuizCache) Get(ctx context.Context, url string) (*entity.Quiz, bool, error) {
	val, err := c.client.Get(ctx, key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var quiz entity.Quiz
	if err := json.Unmarshal(val, &quiz); err != nil {
		slog.WarnContext(ctx, "dropping undecodable cache entry",
			slog.String("url", url),
			slog.Any("error", err))
		_ = c.client.Del(ctx, key(url)).Err()
		return nil, false, nil
	}
	return &quiz, true, nil
}

// Set caches quiz under its URL for the configured TTL. The raw page HTML is
// left out; cached quizzes come back with an empty RawHTML.
func (c *RedisQuizCache) Set(ctx context.Context, quiz *entity.Quiz) error {
	trimmed := *quiz
	trimmed.RawHTML = ""
	b, err := json.Marshal(trimmed)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(quiz.URL), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete evicts the entry for url. Deleting a missing key is not an error.
func (c *RedisQuizCache) Delete(ctx context.Context, url string) error {
	if err := c.client.Del(ctx, key(url)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Ping checks the health of the Redis server.
func (c *RedisQuizCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop is used when no Redis URL is configured. Every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) (*entity.Quiz, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, *entity.Quiz) error                { return nil }
func (Noop) Delete(context.Context, string) error                   { return nil }
func (Noop) Ping(context.Context) error                             { return nil }
