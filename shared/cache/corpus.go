package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/config"

	"github.com/redis/go-redis/v9"
)

var errMiss = errors.New("cache miss")

// HookSource is the store the cache reads through to.
type HookSource interface {
	GetHooks(ctx context.Context, lang models.Language, cat models.Category) ([]string, error)
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

type redisKV struct {
	client *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errMiss
	}
	return v, err
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r redisKV) Close() error { return r.client.Close() }

// CorpusCache is a read-through Redis cache in front of the hook store. Redis
// failures are logged and the store answers instead.
type CorpusCache struct {
	kv     kv
	source HookSource
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewCorpusCache(cfg config.RedisConfig, source HookSource) *CorpusCache {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return newCorpusCache(redisKV{client: client}, source, cfg.TTL)
}

func newCorpusCache(store kv, source HookSource, ttl time.Duration) *CorpusCache {
	return &CorpusCache{
		kv:     store,
		source: source,
		ttl:    ttl,
		prefix: "hook-screener:hooks",
		logger: slog.Default(),
	}
}

func (c *CorpusCache) key(lang models.Language, cat models.Category) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, lang, cat)
}

func (c *CorpusCache) GetHooks(ctx context.Context, lang models.Language, cat models.Category) ([]string, error) {
	key := c.key(lang, cat)

	cached, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var hooks []string
		if jsonErr := json.Unmarshal([]byte(cached), &hooks); jsonErr == nil {
			return hooks, nil
		}
		c.logger.Warn("Discarding undecodable cached corpus", "key", key)
	case !errors.Is(err, errMiss):
		c.logger.Warn("Corpus cache unavailable, reading store", "key", key, "error", err)
	}

	hooks, err := c.source.GetHooks(ctx, lang, cat)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(hooks)
	if err != nil {
		return hooks, nil
	}
	if err := c.kv.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.logger.Debug("Failed to populate corpus cache", "key", key, "error", err)
	}
	return hooks, nil
}

// Invalidate drops the cached slots of cats, or every slot when none are given.
func (c *CorpusCache) Invalidate(ctx context.Context, cats ...models.Category) error {
	if len(cats) == 0 {
		cats = models.Categories
	}
	var keys []string
	for _, lang := range models.Languages {
		for _, cat := range cats {
			keys = append(keys, c.key(lang, cat))
		}
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate corpus cache: %w", err)
	}
	return nil
}

func (c *CorpusCache) Close() error { return c.kv.Close() }
