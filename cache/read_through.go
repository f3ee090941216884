package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// 缓存模式 read-through 模式
// 缓存中读不到数据就去数据库拿, 拿到后设置到缓存里面
// 同一个 key 同时只有一个请求回源, 缓解缓存击穿
type ReadThroughCache struct {
	Cache
	LoadFunc   func(ctx context.Context, key string) (any, error)
	Expiration time.Duration

	g singleflight.Group
}

var _ Cache = new(ReadThroughCache)

func NewReadThroughCache(c Cache, loadFunc func(ctx context.Context, key string) (any, error), expiration time.Duration) *ReadThroughCache {
	return &ReadThroughCache{
		Cache:      c,
		LoadFunc:   loadFunc,
		Expiration: expiration,
	}
}

func (r *ReadThroughCache) Get(ctx context.Context, key string) (any, error) {
	val, err := r.Cache.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		val, err, _ = r.g.Do(key, func() (any, error) {
			return r.load(ctx, key)
		})
		return val, err
	}
	// 缓存本身不可用, 直接回源, 也不再尝试写缓存
	// 拿到了数据就返回 ErrFailedToRefreshCache, 调用方可以只记录日志
	getErr := err
	val, err, _ = r.g.Do(key, func() (any, error) {
		return r.LoadFunc(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return val, fmt.Errorf("%w, 原因: %s", ErrFailedToRefreshCache, getErr)
}

// Refresh 不管缓存里面有没有, 都重新加载一次
func (r *ReadThroughCache) Refresh(ctx context.Context, key string) error {
	_, err, _ := r.g.Do(key, func() (any, error) {
		return r.load(ctx, key)
	})
	return err
}

func (r *ReadThroughCache) load(ctx context.Context, key string) (any, error) {
	val, err := r.LoadFunc(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, val, r.Expiration); err != nil {
		return val, fmt.Errorf("%w, 原因: %s", ErrFailedToRefreshCache, err)
	}
	return val, nil
}
