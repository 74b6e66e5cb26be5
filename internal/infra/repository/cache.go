package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	registry "github.com/mirreg/registry"
)

const resolutionKeyPrefix = "mirreg:resolve:"

// ResolutionCache is the redis look-aside cache on the public read path.
// Cache trouble degrades to a database read, it never fails a request.
type ResolutionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResolutionCache(rdb *redis.Client, ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{rdb: rdb, ttl: ttl}
}

func (r *ResolutionCache) Get(ctx context.Context, key string) (*registry.DataCollection, bool) {
	raw, err := r.rdb.Get(ctx, resolutionKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("resolution cache read failed",
				slog.String("module", "repository"),
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	var c registry.DataCollection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	return &c, true
}

func (r *ResolutionCache) Set(ctx context.Context, key string, c *registry.DataCollection) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, resolutionKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		slog.Warn("resolution cache write failed",
			slog.String("module", "repository"),
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (r *ResolutionCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, resolutionKeyPrefix+k)
	}
	if err := r.rdb.Del(ctx, prefixed...).Err(); err != nil {
		slog.Warn("resolution cache invalidation failed",
			slog.String("module", "repository"),
			slog.String("error", err.Error()))
	}
}
