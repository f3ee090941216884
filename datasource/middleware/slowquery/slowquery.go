package slowquery

import (
	"context"
	"log/slog"
	"time"

	"github.com/startdusk/erp-datasource/datasource"
)

type MiddlewareBuilder struct {
	logFunc func(query string, args []any, duration time.Duration)

	// 慢查询阈值, 设置需要考虑公司实际情况, 如100ms
	threshold time.Duration
}

// NewMiddlewareBuilder fn 为空的时候用 slog.Default 打印 WARN 日志, 不打印参数
func NewMiddlewareBuilder(threshold time.Duration, fn func(query string, args []any, duration time.Duration)) *MiddlewareBuilder {
	if fn == nil {
		logger := slog.Default().With(slog.String("component", "slowquery"))
		fn = func(query string, args []any, duration time.Duration) {
			logger.Warn("慢查询", slog.String("sql", query), slog.Duration("duration", duration))
		}
	}
	return &MiddlewareBuilder{
		logFunc:   fn,
		threshold: threshold,
	}
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				// 不是慢查询
				if duration <= m.threshold {
					return
				}
				m.logFunc(qc.Statement.SQL, qc.Statement.Args, duration)
			}()
			return next(ctx, qc)
		}
	}
}
