package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/startdusk/erp-datasource/datasource"
)

type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string

	// Registerer 为空的时候注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,

		// 设置指标 如 0.5: 0.01 0.5是一个指标，0.01是一个误差值，表示0.5上下0.01 即误差范围为 0.49-0.51
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{
		"type",  // SELECT, INSERT, UPDATE, DELETE
		"table", // 写操作的目标表, SELECT 为空
		"error", // 是否出错
	})

	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector)

	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			startTime := time.Now()
			res := next(ctx, qc)
			errLabel := "false"
			if res.Err != nil {
				errLabel = "true"
			}
			// 记录执行时间, 单位是毫秒
			duration := float64(time.Since(startTime).Microseconds()) / 1000
			vector.WithLabelValues(qc.Type, qc.Table, errLabel).Observe(duration)
			return res
		}
	}
}
