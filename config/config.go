// Package config 读取数据源的配置
// 优先级: 命令行参数 > 环境变量 DATASOURCE_* > 配置文件 > 默认值, .env 里面的变量等同于环境变量
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppFs 测试的时候可以换成内存文件系统
var AppFs = afero.NewOsFs()

const envPrefix = "DATASOURCE"

var (
	ErrMissingDriver  = errors.New("config: 没有指定数据库驱动")
	ErrMissingDSN     = errors.New("config: 没有指定 DSN")
	ErrUnknownBackend = errors.New("config: 未知的缓存类型")
)

// 支持的列缓存
const (
	BackendMemory  = "memory"
	BackendLRU     = "lru"
	BackendGoCache = "gocache"
	BackendRedis   = "redis"
)

type Config struct {
	Driver string     `mapstructure:"driver"`
	DSN    string     `mapstructure:"dsn"`
	Pool   PoolConfig `mapstructure:"pool"`
	Query  Query      `mapstructure:"query"`
	Audit  Audit      `mapstructure:"audit"`
	Cache  Cache      `mapstructure:"cache"`
}

type PoolConfig struct {
	MaxOpen         int           `mapstructure:"max_open"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type Query struct {
	PageSize      int           `mapstructure:"page_size"`
	SequenceTable string        `mapstructure:"sequence_table"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

type Audit struct {
	ActivityTable string `mapstructure:"activity_table"`
	CreatedAt     string `mapstructure:"created_at"`
	CreatedBy     string `mapstructure:"created_by"`
	UpdatedAt     string `mapstructure:"updated_at"`
	UpdatedBy     string `mapstructure:"updated_by"`
}

type Cache struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	// Size 只对 lru 生效
	Size          int    `mapstructure:"size"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "postgres")
	v.SetDefault("dsn", "")

	v.SetDefault("pool.max_open", 20)
	v.SetDefault("pool.max_idle", 5)
	v.SetDefault("pool.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("pool.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("query.page_size", 10)
	v.SetDefault("query.sequence_table", "sis_secuencia")
	v.SetDefault("query.slow_threshold", 500*time.Millisecond)

	v.SetDefault("audit.activity_table", "sis_actividad")
	v.SetDefault("audit.created_at", "created_at")
	v.SetDefault("audit.created_by", "created_by")
	v.SetDefault("audit.updated_at", "updated_at")
	v.SetDefault("audit.updated_by", "updated_by")

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
}

// flagKeys 命令行参数名 => 配置项
var flagKeys = map[string]string{
	"driver":    "driver",
	"dsn":       "dsn",
	"page-size": "query.page_size",
	"cache":     "cache.backend",
}

// Load 读取配置, file 为空的时候在当前目录和 ~/.config/erp-datasource 下面找 datasource.yaml
// flags 里面显式设置过的参数优先级最高
func Load(file string, flags ...*pflag.FlagSet) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, fs := range flags {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: 读取配置文件 %s 失败: %w", file, err)
		}
	} else {
		v.SetConfigName("datasource")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "erp-datasource"))
		}
		// 找不到配置文件就只用环境变量
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: 读取配置文件失败: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: 解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv .env 不覆盖已经存在的环境变量, .env.local 会覆盖
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

func (c *Config) Validate() error {
	if c.Driver == "" {
		return ErrMissingDriver
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendLRU, BackendGoCache, BackendRedis:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Cache.Backend)
	}
	return nil
}
