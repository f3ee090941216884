package safedml

import (
	"context"
	"fmt"
	"strings"

	"github.com/startdusk/erp-datasource/datasource"
)

var ErrMissingWhere = fmt.Errorf("%w: 禁止执行没有WHERE的语句", datasource.ErrInvalidQuery)

// UPDATE, DELETE 必须带 WHERE
type MiddlewareBuilder struct {
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			if qc.Type != "UPDATE" && qc.Type != "DELETE" {
				return next(ctx, qc)
			}
			if !strings.Contains(strings.ToUpper(qc.Statement.SQL), "WHERE") {
				return &datasource.QueryResult{
					Err: fmt.Errorf("%w: %s", ErrMissingWhere, qc.Type),
				}
			}
			return next(ctx, qc)
		}
	}
}
