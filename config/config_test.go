package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/erp-datasource/cache"
	"github.com/startdusk/erp-datasource/datasource"
)

func useMemFs(t *testing.T) afero.Fs {
	old := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = old })
	return fs
}

func TestLoad(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr error
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"DATASOURCE_DSN": "postgres://localhost/erp"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Driver)
				assert.Equal(t, "postgres://localhost/erp", cfg.DSN)
				assert.Equal(t, 20, cfg.Pool.MaxOpen)
				assert.Equal(t, 30*time.Minute, cfg.Pool.ConnMaxLifetime)
				assert.Equal(t, 10, cfg.Query.PageSize)
				assert.Equal(t, "sis_secuencia", cfg.Query.SequenceTable)
				assert.Equal(t, "sis_actividad", cfg.Audit.ActivityTable)
				assert.Equal(t, "updated_by", cfg.Audit.UpdatedBy)
				assert.Equal(t, BackendMemory, cfg.Cache.Backend)
				assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
			},
		},
		{
			name: "file",
			file: `
driver: mysql
dsn: root:root@tcp(localhost:3306)/erp
query:
  page_size: 25
  slow_threshold: 2s
cache:
  backend: lru
  size: 64
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.Driver)
				assert.Equal(t, 25, cfg.Query.PageSize)
				assert.Equal(t, 2*time.Second, cfg.Query.SlowThreshold)
				assert.Equal(t, BackendLRU, cfg.Cache.Backend)
				assert.Equal(t, 64, cfg.Cache.Size)
				// 文件里面没有写的用默认值
				assert.Equal(t, "sis_actividad", cfg.Audit.ActivityTable)
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"DATASOURCE_QUERY_PAGE_SIZE":  "50",
				"DATASOURCE_CACHE_REDIS_ADDR": "redis:6379",
			},
			file: `
dsn: postgres://localhost/erp
query:
  page_size: 25
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 50, cfg.Query.PageSize)
				assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
			},
		},
		{
			name:    "missing dsn",
			env:     map[string]string{"DATASOURCE_DSN": ""},
			wantErr: ErrMissingDSN,
		},
		{
			name: "unknown backend",
			env: map[string]string{
				"DATASOURCE_DSN":           "postgres://localhost/erp",
				"DATASOURCE_CACHE_BACKEND": "memcached",
			},
			wantErr: ErrUnknownBackend,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			useMemFs(t)
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			var file string
			if c.file != "" {
				file = filepath.Join(t.TempDir(), "datasource.yaml")
				require.NoError(t, os.WriteFile(file, []byte(c.file), 0o644))
			}
			cfg, err := Load(file)
			assert.ErrorIs(t, err, c.wantErr)
			if err != nil {
				return
			}
			c.check(t, cfg)
		})
	}
}

func TestLoad_Flags(t *testing.T) {
	useMemFs(t)
	t.Setenv("DATASOURCE_DSN", "postgres://localhost/erp")
	t.Setenv("DATASOURCE_DRIVER", "postgres")

	fs := pflag.NewFlagSet("dsctl", pflag.ContinueOnError)
	fs.String("driver", "", "")
	fs.String("dsn", "", "")
	fs.Int("page-size", 0, "")
	require.NoError(t, fs.Parse([]string{"--driver", "sqlite3", "--dsn", "file:erp.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "file:erp.db", cfg.DSN)
	// 没有设置的参数不覆盖默认值
	assert.Equal(t, 10, cfg.Query.PageSize)
}

func TestLoad_FileNotExist(t *testing.T) {
	useMemFs(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("DATASOURCE_DSN=file::memory:\nDATASOURCE_DRIVER=sqlite3\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("DATASOURCE_DSN")
		_ = os.Unsetenv("DATASOURCE_DRIVER")
	})
	old := AppFs
	AppFs = afero.NewOsFs()
	t.Cleanup(func() { AppFs = old })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "file::memory:", cfg.DSN)
}

func TestConfig_BuildCache(t *testing.T) {
	cases := []struct {
		name    string
		cache   Cache
		want    any
		wantErr bool
	}{
		{name: "memory", cache: Cache{Backend: BackendMemory}, want: &cache.BuildInMapCache{}},
		{name: "lru", cache: Cache{Backend: BackendLRU, Size: 8}, want: &cache.LRUCache{}},
		{name: "lru zero size", cache: Cache{Backend: BackendLRU}, wantErr: true},
		{name: "gocache", cache: Cache{Backend: BackendGoCache, TTL: time.Minute}, want: &cache.GoCache{}},
		{name: "redis", cache: Cache{Backend: BackendRedis, RedisAddr: "localhost:6379"}, want: &cache.RedisCache{}},
		{name: "unknown", cache: Cache{Backend: "memcached"}, wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &Config{Cache: c.cache}
			got, err := cfg.BuildCache()
			assert.Equal(t, c.wantErr, err != nil)
			if err != nil {
				return
			}
			assert.IsType(t, c.want, got)
		})
	}
}

func TestConfig_Service(t *testing.T) {
	cfg := &Config{
		Driver: "sqlite3",
		DSN:    "file::memory:?cache=shared",
		Pool:   PoolConfig{MaxOpen: 1, MaxIdle: 1},
		Query:  Query{PageSize: 5, SequenceTable: "sis_secuencia"},
		Audit: Audit{
			ActivityTable: "sis_actividad",
			CreatedAt:     "created_at",
			CreatedBy:     "created_by",
			UpdatedAt:     "updated_at",
			UpdatedBy:     "updated_by",
		},
		Cache: Cache{Backend: BackendGoCache, TTL: time.Minute},
	}
	require.NoError(t, cfg.Validate())

	db, err := cfg.OpenDB(nil)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, datasource.DialectSQLite, db.Dialect())

	opts, err := cfg.ServiceOptions()
	require.NoError(t, err)
	svc := datasource.NewService(db, opts...)

	res, err := svc.CreateQuery(context.Background(), datasource.NewSelect("SELECT 1 AS uno"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowCount)
}
