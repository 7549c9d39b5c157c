package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache 基于Redis的租户缓存，每个租户的键登记在一个集合中以便整体失效
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache 创建Redis缓存
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "sitehub"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(tenant, key string) string {
	return fmt.Sprintf("%s:tenant:%s:%s", c.prefix, tenant, key)
}

func (c *RedisCache) indexKey(tenant string) string {
	return fmt.Sprintf("%s:tenant:%s:__keys", c.prefix, tenant)
}

// Get 读取缓存
func (c *RedisCache) Get(ctx context.Context, tenant, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(tenant, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取缓存失败: %w", err)
	}
	return data, true, nil
}

// Set 写入缓存并登记到租户索引
func (c *RedisCache) Set(ctx context.Context, tenant, key string, value []byte) error {
	full := c.key(tenant, key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, full, value, c.ttl)
	pipe.SAdd(ctx, c.indexKey(tenant), full)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// Invalidate 删除该租户的全部缓存
func (c *RedisCache) Invalidate(ctx context.Context, tenant string) error {
	index := c.indexKey(tenant)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("读取缓存索引失败: %w", err)
	}
	keys = append(keys, index)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("清除租户缓存失败: %w", err)
	}
	return nil
}

// Ping 测试Redis连接
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}
