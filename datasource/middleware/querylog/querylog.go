package querylog

import (
	"context"
	"log/slog"

	"github.com/startdusk/erp-datasource/datasource"
)

type MiddlewareBuilder struct {
	// 存在问题, SQL参数存在敏感数据不应该被打印出来
	// logArgs 为 false 的时候默认的日志不打印参数
	logFunc func(query string, args []any)
	logArgs bool
}

// NewMiddlewareBuilder fn 为空的时候使用 slog.Default 打印 DEBUG 日志
func NewMiddlewareBuilder(fn func(query string, args []any)) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: fn,
	}
}

// LogArgs 默认日志也打印参数, 只建议在开发环境使用
func (m *MiddlewareBuilder) LogArgs() *MiddlewareBuilder {
	m.logArgs = true
	return m
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	logFunc := m.logFunc
	if logFunc == nil {
		logger := slog.Default().With(slog.String("component", "querylog"))
		logFunc = func(query string, args []any) {
			attrs := []any{slog.String("sql", query)}
			if m.logArgs {
				attrs = append(attrs, slog.Any("args", args))
			}
			logger.Debug("执行 SQL", attrs...)
		}
	}
	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			logFunc(qc.Statement.SQL, qc.Statement.Args)
			return next(ctx, qc)
		}
	}
}
