package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// redisKeyPrefix AI 回應快取在 redis 中的前綴
const redisKeyPrefix = "chefmate:ai:response:"

// RedisCache 以 redis 保存 AI 回應，條目帶 TTL
type RedisCache struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewRedisCache 創建 redis 快取並測試連接
func NewRedisCache(ctx context.Context, storage *config.StorageConfig, cfg *config.CacheConfig) (*RedisCache, error) {
	if storage.RedisAddr == "" {
		return nil, fmt.Errorf("redis cache requires storage.redis_addr")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     storage.RedisAddr,
		Password: storage.RedisPassword,
		DB:       storage.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, config: cfg}, nil
}

// Get 讀取快取，連線錯誤視為未命中
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if key == "" {
		return "", false
	}

	value, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			common.LogWarn("讀取 redis 快取失敗", zap.Error(err))
			metrics.CacheLookups.WithLabelValues("error").Inc()
			return "", false
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		common.LogCacheMiss("redis")
		return "", false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	common.LogCacheHit("redis")
	return value, true
}

// Set 寫入快取，失敗只記錄警告
func (r *RedisCache) Set(ctx context.Context, key, value string) {
	if key == "" {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, r.config.TTL).Err(); err != nil {
		common.LogWarn("寫入 redis 快取失敗", zap.Error(err))
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
