package datasource

import (
	"context"
	"database/sql"
)

// Statement 是最终发给数据库的语句
type Statement struct {
	SQL  string
	Args []any
}

// Row 一行数据, 列名 => 解码之后的值
type Row map[string]any

// ResultQuery 是所有查询统一的返回结构
type ResultQuery struct {
	RowCount int64 `json:"rowCount"`
	// TotalRecords 没有过滤之前的总数, 只有分页查询才有
	TotalRecords *int64 `json:"totalRecords,omitempty"`
	// FilteredRecords 过滤之后的总数, 只有带过滤条件的分页查询才有
	FilteredRecords *int64       `json:"filteredRecords,omitempty"`
	Rows            []Row        `json:"rows"`
	Columns         []ColumnMeta `json:"columns,omitempty"`
	Pagination      *Pagination  `json:"pagination,omitempty"`
	LastInsertID    int64        `json:"lastInsertId,omitempty"`
	Message         string       `json:"message"`
	Error           bool         `json:"error"`
}

// NewErrorResult 把失败的查询包装成结果, 给需要统一返回结构的调用方使用
func NewErrorResult(err error) *ResultQuery {
	return &ResultQuery{Rows: []Row{}, Message: err.Error(), Error: true}
}

// Session 是 DB 和 Tx 的公共抽象
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
