package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Cache = new(BuildInMapCache)

type BuildInMapCacheOption func(cache *BuildInMapCache)

func BuildInMapCacheWithEvictedCallback(fn func(key string, val any)) BuildInMapCacheOption {
	return func(cache *BuildInMapCache) {
		cache.onEvicted = fn
	}
}

// BuildInMapCache 进程内的缓存, 单个进程的默认选择
type BuildInMapCache struct {
	data      map[string]*item
	mutex     sync.RWMutex
	close     chan struct{}
	closeOnce sync.Once

	// 变更通知（回调函数)
	onEvicted func(key string, val any)
}

func NewBuildInMapCache(interval time.Duration, opts ...BuildInMapCacheOption) *BuildInMapCache {
	b := &BuildInMapCache{
		data:  make(map[string]*item, 100),
		close: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	// 轮询删除过期的key
	// 定时轮询的缺陷, 不保证每个过期的key都能及时被删除
	// 所以需要用户获取该key的时候再检查是否过期
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				b.mutex.Lock()
				var i int
				for key, val := range b.data {
					// 控制每次遍历的数量, map 的遍历是无序的, 相当于随机抽查
					if i > 1000 {
						break
					}
					if val.expired(now) {
						b.delete(key)
					}
					i++
				}
				b.mutex.Unlock()

			case <-b.close:
				return
			}
		}
	}()

	return b
}

func (b *BuildInMapCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.set(key, val, expiration)
	return nil
}

func (b *BuildInMapCache) Get(ctx context.Context, key string) (any, error) {
	b.mutex.RLock()
	val, ok := b.data[key]
	b.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}

	now := time.Now()
	if val.expired(now) {
		// double check
		b.mutex.Lock()
		defer b.mutex.Unlock()
		val, ok = b.data[key]
		if !ok {
			return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
		}
		if val.expired(now) {
			b.delete(key)
			return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
		}
	}
	return val.val, nil
}

func (b *BuildInMapCache) Delete(ctx context.Context, key string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.delete(key)
	return nil
}

// Close 停止后台的轮询, 可以重复调用
func (b *BuildInMapCache) Close() error {
	b.closeOnce.Do(func() {
		close(b.close)
	})
	return nil
}

func (b *BuildInMapCache) delete(key string) {
	it, ok := b.data[key]
	if !ok {
		return
	}
	delete(b.data, key)
	if b.onEvicted != nil {
		b.onEvicted(key, it.val)
	}
}

func (b *BuildInMapCache) set(key string, val any, expiration time.Duration) {
	var dl time.Time
	if expiration > 0 {
		dl = time.Now().Add(expiration)
	}
	b.data[key] = &item{
		val:      val,
		deadline: dl,
	}
}

type item struct {
	val      any
	deadline time.Time // 过期的时间点, 零值代表永不过期
}

func (i *item) expired(now time.Time) bool {
	return !i.deadline.IsZero() && i.deadline.Before(now)
}
