package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound 过期和找不到, 用户不应该区分
	ErrKeyNotFound = errors.New("cache: 键不存在")

	ErrFailedToRefreshCache = errors.New("cache: 刷新缓存失败")
)

// 为什么不用泛型
// type Cache[T any] interface
// 由于Golang泛型的缺陷, 使用泛型只能用一种类型, 但缓存是会缓存多种类型, 使用any + 类型转换更合适
// 需要跨进程共享的值(比如 redis)请使用 string
type Cache interface {
	Set(ctx context.Context, key string, val any, expiration time.Duration) error
	Get(ctx context.Context, key string) (any, error)
	Delete(ctx context.Context, key string) error
}
