package config

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/startdusk/erp-datasource/cache"
	"github.com/startdusk/erp-datasource/datasource"
)

// BuildCache 根据配置创建表结构缓存
func (c *Config) BuildCache() (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendMemory, "":
		return cache.NewBuildInMapCache(time.Minute), nil
	case BackendLRU:
		lru, err := cache.NewLRUCache(c.Cache.Size)
		if err != nil {
			return nil, fmt.Errorf("config: 创建 lru 缓存失败: %w", err)
		}
		return lru, nil
	case BackendGoCache:
		return cache.NewGoCache(c.Cache.TTL, time.Minute), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
		return cache.NewRedisCache(client), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, c.Cache.Backend)
}

// ServiceOptions 把配置翻译成 datasource.ServiceOption
func (c *Config) ServiceOptions() ([]datasource.ServiceOption, error) {
	columnCache, err := c.BuildCache()
	if err != nil {
		return nil, err
	}
	return []datasource.ServiceOption{
		datasource.WithDefaultPageSize(c.Query.PageSize),
		datasource.WithSequenceTable(c.Query.SequenceTable),
		datasource.WithActivityTable(c.Audit.ActivityTable),
		datasource.WithAuditColumns(datasource.AuditColumns{
			CreatedAt: c.Audit.CreatedAt,
			CreatedBy: c.Audit.CreatedBy,
			UpdatedAt: c.Audit.UpdatedAt,
			UpdatedBy: c.Audit.UpdatedBy,
		}),
		// 缓存是这里创建的, 跟着 Service 一起关闭
		datasource.WithOwnedColumnCache(columnCache),
		datasource.WithColumnCacheTTL(c.Cache.TTL),
	}, nil
}

// OpenDB 打开连接池并设置池子的参数
func (c *Config) OpenDB(logger *slog.Logger, mdls ...datasource.Middleware) (*datasource.DB, error) {
	sqlDB, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(c.Pool.MaxOpen)
	sqlDB.SetMaxIdleConns(c.Pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(c.Pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(c.Pool.ConnMaxIdleTime)

	opts := []datasource.DBOption{datasource.DBWithDialect(datasource.DialectOf(c.Driver))}
	if logger != nil {
		opts = append(opts, datasource.DBWithLogger(logger))
	}
	if len(mdls) > 0 {
		opts = append(opts, datasource.DBWithMiddlewares(mdls...))
	}
	return datasource.OpenDB(sqlDB, opts...)
}
