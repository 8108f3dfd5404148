package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/pkg/model"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	cachePrefix     = "sentryslack"
)

// LabelSource is the authoritative label storage behind the cache.
type LabelSource interface {
	KeyLabels(ctx context.Context, projectID int64, keys []string) (map[string]string, error)
	ValueLabels(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error)
	SetKeyLabel(ctx context.Context, projectID int64, key, label string) error
	SetValueLabel(ctx context.Context, projectID int64, tag model.Tag, label string) error
}

// LabelCache is a redis read-through cache for tag labels. Each lookup is
// one MGET plus at most one batched query against the source for misses.
// Unlabeled entries are cached as empty strings. Redis failures fall back to
// the source.
type LabelCache struct {
	rdb *redis.Client
	src LabelSource
	ttl time.Duration
}

// NewLabelCache connects to redisURL (redis:// or rediss://) and fails fast
// if the server is unreachable.
func NewLabelCache(ctx context.Context, redisURL string, src LabelSource, ttl time.Duration) (*LabelCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Config("parse redis url", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3
	if opts.TLSConfig == nil && strings.HasPrefix(redisURL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Config("redis ping failed", err)
	}

	return NewLabelCacheWithClient(rdb, src, ttl), nil
}

func NewLabelCacheWithClient(rdb *redis.Client, src LabelSource, ttl time.Duration) *LabelCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LabelCache{rdb: rdb, src: src, ttl: ttl}
}

func (c *LabelCache) Close() error {
	return c.rdb.Close()
}

func keyCacheKey(projectID int64, key string) string {
	return fmt.Sprintf("%s:tagkey:%d:%s", cachePrefix, projectID, key)
}

// values can be arbitrarily long, so the value part of the key is hashed
func valueCacheKey(projectID int64, tag model.Tag) string {
	return fmt.Sprintf("%s:tagvalue:%d:%s:%016x", cachePrefix, projectID, tag.Key, xxhash.Sum64String(tag.Value))
}

func (c *LabelCache) KeyLabels(ctx context.Context, projectID int64, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = keyCacheKey(projectID, k)
	}

	cached, err := c.rdb.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("label cache unavailable, reading tag key labels from store")
		return c.src.KeyLabels(ctx, projectID, keys)
	}

	labels := make(map[string]string, len(keys))
	var misses []string
	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, keys[i])
			continue
		}
		if s != "" {
			labels[keys[i]] = s
		}
	}
	if len(misses) == 0 {
		return labels, nil
	}

	fetched, err := c.src.KeyLabels(ctx, projectID, misses)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for _, k := range misses {
		label := fetched[k]
		if label != "" {
			labels[k] = label
		}
		pipe.Set(ctx, keyCacheKey(projectID, k), label, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Debug().Err(err).Msg("label cache fill failed")
	}
	return labels, nil
}

func (c *LabelCache) ValueLabels(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error) {
	if len(tags) == 0 {
		return map[model.Tag]string{}, nil
	}

	cacheKeys := make([]string, len(tags))
	for i, t := range tags {
		cacheKeys[i] = valueCacheKey(projectID, t)
	}

	cached, err := c.rdb.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("label cache unavailable, reading tag value labels from store")
		return c.src.ValueLabels(ctx, projectID, tags)
	}

	labels := make(map[model.Tag]string, len(tags))
	var misses []model.Tag
	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, tags[i])
			continue
		}
		if s != "" {
			labels[tags[i]] = s
		}
	}
	if len(misses) == 0 {
		return labels, nil
	}

	fetched, err := c.src.ValueLabels(ctx, projectID, misses)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for _, t := range misses {
		label := fetched[t]
		if label != "" {
			labels[t] = label
		}
		pipe.Set(ctx, valueCacheKey(projectID, t), label, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Debug().Err(err).Msg("label cache fill failed")
	}
	return labels, nil
}

func (c *LabelCache) SetKeyLabel(ctx context.Context, projectID int64, key, label string) error {
	if err := c.src.SetKeyLabel(ctx, projectID, key, label); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, keyCacheKey(projectID, key)).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("label cache invalidation failed")
	}
	return nil
}

func (c *LabelCache) SetValueLabel(ctx context.Context, projectID int64, tag model.Tag, label string) error {
	if err := c.src.SetValueLabel(ctx, projectID, tag, label); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, valueCacheKey(projectID, tag)).Err(); err != nil {
		log.Warn().Err(err).Str("key", tag.Key).Msg("label cache invalidation failed")
	}
	return nil
}
