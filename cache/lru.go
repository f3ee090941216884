package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var _ Cache = new(LRUCache)

// LRUCache 控制住缓存的键值对数量, 满了淘汰最久没有用过的
type LRUCache struct {
	c *lru.Cache[string, *item]
}

func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, *item](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{c: c}, nil
}

func (l *LRUCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	var dl time.Time
	if expiration > 0 {
		dl = time.Now().Add(expiration)
	}
	l.c.Add(key, &item{val: val, deadline: dl})
	return nil
}

func (l *LRUCache) Get(ctx context.Context, key string) (any, error) {
	it, ok := l.c.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	// 过期的键在读的时候才删除
	if it.expired(time.Now()) {
		l.c.Remove(key)
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return it.val, nil
}

func (l *LRUCache) Delete(ctx context.Context, key string) error {
	l.c.Remove(key)
	return nil
}
