// Package cache 提供按租户隔离的模板元数据缓存。
//
// 缓存不是全局状态：每个键都属于某个租户，主题或结构变化后由调用方显式 Invalidate。
package cache

import "context"

// TenantCache 按租户隔离的缓存
type TenantCache interface {
	Get(ctx context.Context, tenant, key string) ([]byte, bool, error)
	Set(ctx context.Context, tenant, key string, value []byte) error
	Invalidate(ctx context.Context, tenant string) error
}

// Noop 未启用Redis时使用，所有读取都未命中
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, string, []byte) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
