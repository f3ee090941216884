package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/startdusk/erp-datasource/config"
	"github.com/startdusk/erp-datasource/datasource"
	"github.com/startdusk/erp-datasource/datasource/middleware/nodelete"
	"github.com/startdusk/erp-datasource/datasource/middleware/opentelemetry"
	"github.com/startdusk/erp-datasource/datasource/middleware/querylog"
	"github.com/startdusk/erp-datasource/datasource/middleware/safedml"
	"github.com/startdusk/erp-datasource/datasource/middleware/slowquery"
)

// RootOptions 所有子命令共用的参数
type RootOptions struct {
	ConfigFile string
	Format     string
	Verbose    bool
	// Safe 禁止 DELETE, UPDATE 必须带 WHERE
	Safe bool

	Driver   string
	DSN      string
	PageSize int
	Cache    string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dsctl",
		Short: "ERP 数据源命令行",
		Long: `dsctl 直接通过数据源服务执行查询, 写操作, 取序号以及查看表结构.

配置读取顺序: 命令行参数 > DATASOURCE_* 环境变量 > datasource.yaml > 默认值`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("不支持的输出格式 %q, 只能是 %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "配置文件路径")
	flags.StringVar(&opts.Format, "format", "text", "输出格式 (json|text)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "打印执行的 SQL")
	flags.BoolVar(&opts.Safe, "safe", false, "禁止 DELETE 以及没有 WHERE 的 UPDATE")
	flags.StringVar(&opts.Driver, "driver", "", "数据库驱动 (postgres|mysql|sqlite3)")
	flags.StringVar(&opts.DSN, "dsn", "", "数据库连接串")
	flags.IntVar(&opts.PageSize, "page-size", 0, "默认每页条数")
	flags.StringVar(&opts.Cache, "cache", "", "表结构缓存 (memory|lru|gocache|redis)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSeqCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session 一次命令执行期间用到的服务
type session struct {
	svc *datasource.Service
	cfg *config.Config
	db  *datasource.DB
}

func (s *session) Close() {
	_ = s.svc.Close()
	_ = s.db.Close()
}

// openSession 根据配置打开连接池
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "读取配置失败", err)
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	mdls := []datasource.Middleware{
		opentelemetry.MiddlewareBuilder{}.Build(),
		querylog.NewMiddlewareBuilder(func(query string, args []any) {
			logger.Debug("执行 SQL", slog.String("sql", query), slog.Any("args", args))
		}).Build(),
		slowquery.NewMiddlewareBuilder(cfg.Query.SlowThreshold, func(query string, args []any, duration time.Duration) {
			logger.Warn("慢查询", slog.String("sql", query), slog.Duration("duration", duration))
		}).Build(),
	}
	if opts.Safe {
		mdls = append(mdls, safedml.NewMiddlewareBuilder().Build(), nodelete.NewMiddlewareBuilder().Build())
	}

	db, err := cfg.OpenDB(logger, mdls...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "连接数据库失败", err)
	}
	svcOpts, err := cfg.ServiceOptions()
	if err != nil {
		_ = db.Close()
		return nil, WrapExitError(ExitCommandError, "创建缓存失败", err)
	}
	return &session{
		svc: datasource.NewService(db, svcOpts...),
		cfg: cfg,
		db:  db,
	}, nil
}
