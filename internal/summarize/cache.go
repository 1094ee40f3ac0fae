package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"abstract-lens/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "summary:"

// Store persists finished summaries by key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore keeps summaries in redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, cfg config.CacheConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Cached serves repeated requests for the same input from a Store and
// collapses concurrent identical requests into one backend call. Cache errors
// are logged and never fail the summary.
type Cached struct {
	Inner Summarizer
	Store Store
	TTL   time.Duration
	Model string
	// MinLength and MaxLength are the prompt's length hints.
	MinLength int
	MaxLength int

	group singleflight.Group
}

func (c *Cached) Name() string { return c.Inner.Name() }

// Key derives the cache key from the backend identity, the length hints and
// the exact input.
func (c *Cached) Key(text string) string {
	id := fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00", c.Inner.Name(), c.Model, c.MinLength, c.MaxLength)
	sum := sha256.Sum256([]byte(id + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *Cached) Summarize(ctx context.Context, text string) (string, error) {
	key := c.Key(text)
	if v, ok, err := c.Store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("Summary cache read failed")
	} else if ok {
		log.Debug().Str("key", key).Msg("Summary cache hit")
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		summary, err := c.Inner.Summarize(ctx, text)
		if err != nil {
			return "", err
		}
		if summary == "" {
			return summary, nil
		}
		if err := c.Store.Set(ctx, key, summary, c.TTL); err != nil {
			log.Warn().Err(err).Msg("Summary cache write failed")
		}
		return summary, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
