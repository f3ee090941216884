package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var errFailedToSetCache = errors.New("cache: 写入缓存失败")

// RedisCmdable 只用到 redis.Cmdable 的这几个方法
// *redis.Client 和 *redis.ClusterClient 都实现了它
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Cache = new(RedisCache)

// RedisCache 多个进程共享的缓存, 取出来的值都是 string
type RedisCache struct {
	client RedisCmdable
}

func NewRedisCache(client RedisCmdable) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	res, err := r.client.Set(ctx, key, val, expiration).Result()
	if err != nil {
		return err
	}
	if res != "OK" {
		return fmt.Errorf("%w, 返回信息 %s", errFailedToSetCache, res)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (any, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, err
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	_, err := r.client.Del(ctx, key).Result()
	return err
}

// Close 关闭底层的连接, 客户端不支持关闭的时候什么都不做
func (r *RedisCache) Close() error {
	if c, ok := r.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
