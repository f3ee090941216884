package opentelemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/startdusk/erp-datasource/datasource"
)

const instrumentationName = "github.com/startdusk/erp-datasource/datasource/middleware/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			// span name: SELECT 或者 UPDATE-TABLE_NAME
			name := qc.Type
			if qc.Table != "" {
				name = name + "-" + qc.Table
			}
			spanCtx, span := m.Tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			// tracing这里没必要记录参数, 防止数据过大(如 blob), 防止敏感数据被记录到tracing(如 用户密码)
			span.SetAttributes(
				attribute.String("sql", qc.Statement.SQL),
				attribute.String("table", qc.Table),
				attribute.String("component", "datasource"),
			)

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
