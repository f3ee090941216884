package datasource

import (
	"context"
)

type QueryContext struct {
	// Type 声明查询类型 即 SELECT, UPDATE, DELETE 和 INSERT
	Type string

	// Table 写操作的目标表, SELECT 为空
	Table string

	// Statement 最终执行的语句, 中间件可以篡改它
	Statement *Statement
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

type QueryResult struct {
	// Result 在不同的查询里面, 类型是不同的
	// 查询语句里面是 *RowSet
	// 其他情况下, 它是 sql.Result
	Result any
	Err    error
}
