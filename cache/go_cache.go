package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = new(GoCache)

// GoCache 基于 patrickmn/go-cache 的进程内缓存
type GoCache struct {
	c *gocache.Cache
}

func NewGoCache(defaultExpiration, cleanupInterval time.Duration) *GoCache {
	return &GoCache{
		c: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (g *GoCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	g.c.Set(key, val, expiration)
	return nil
}

func (g *GoCache) Get(ctx context.Context, key string) (any, error) {
	val, ok := g.c.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (g *GoCache) Delete(ctx context.Context, key string) error {
	g.c.Delete(key)
	return nil
}
