package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"content-studio/internal/common/database"
	"content-studio/internal/common/logger"
	"content-studio/internal/common/metrics"
	"content-studio/internal/provider"
)

// RedisResultCache stores resolved payloads keyed by channel and prompt
// digest. All Redis failures degrade to cache misses so a broken cache
// never blocks generation.
type RedisResultCache struct {
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisResultCache(client *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisResultCache {
	return &RedisResultCache{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "result_cache"}),
	}
}

func cacheKey(channel provider.Channel, prompt string) string {
	digest := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("studio:result:%s:%x", channel, digest)
}

func (c *RedisResultCache) Get(ctx context.Context, channel provider.Channel, prompt string) (*provider.Payload, bool) {
	raw, err := c.client.Get(ctx, cacheKey(channel, prompt))
	if err != nil {
		metrics.CacheHits.WithLabelValues(string(channel), "miss").Inc()
		return nil, false
	}

	var payload provider.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.WithError(err).Warn("discarding undecodable cache entry", map[string]interface{}{
			"channel": string(channel),
		})
		metrics.CacheHits.WithLabelValues(string(channel), "miss").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(string(channel), "hit").Inc()
	return &payload, true
}

func (c *RedisResultCache) Put(ctx context.Context, channel provider.Channel, prompt string, payload *provider.Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).Warn("failed to encode payload for cache", nil)
		return
	}

	if err := c.client.Set(ctx, cacheKey(channel, prompt), string(data), c.ttl); err != nil {
		c.logger.WithError(err).Warn("failed to write result cache", map[string]interface{}{
			"channel": string(channel),
		})
	}
}
