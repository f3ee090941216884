package nodelete

import (
	"context"
	"fmt"

	"github.com/startdusk/erp-datasource/datasource"
)

var ErrDeleteForbidden = fmt.Errorf("%w: 禁止使用DELETE语句", datasource.ErrInvalidQuery)

type MiddlewareBuilder struct {
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m MiddlewareBuilder) Build() datasource.Middleware {
	return func(next datasource.Handler) datasource.Handler {
		return func(ctx context.Context, qc *datasource.QueryContext) *datasource.QueryResult {
			// 禁用 DELETE 语句, 需要软删除的系统用 UPDATE 代替
			if qc.Type == "DELETE" {
				return &datasource.QueryResult{
					Err: ErrDeleteForbidden,
				}
			}
			return next(ctx, qc)
		}
	}
}
