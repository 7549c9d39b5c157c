package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sitehub/internal/cache"
	"sitehub/pkg/config"
	"sitehub/pkg/logger"

	"github.com/go-redis/redis/v8"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// NewRedisClient 按配置创建Redis客户端
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// GetRedisClient 获取Redis客户端的单例实例
func GetRedisClient() *redis.Client {
	redisOnce.Do(func() {
		redisClient = NewRedisClient(config.GetConfig().Redis)
	})
	return redisClient
}

// NewTenantCache 创建租户缓存；未启用或无法连接Redis时退化为空实现
func NewTenantCache(cfg config.RedisConfig) cache.TenantCache {
	if !cfg.Enabled {
		return cache.Noop{}
	}

	client := GetRedisClient()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().Warnf("Redis不可用，租户缓存已禁用: %v", err)
		return cache.Noop{}
	}
	return cache.NewRedisCache(client, cfg.Prefix, cfg.CacheTTL)
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
