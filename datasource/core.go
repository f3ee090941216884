package datasource

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/startdusk/erp-datasource/datasource/typeparser"
)

type core struct {
	dialect  Dialect
	registry *typeparser.Registry
	logger   *slog.Logger

	mdls []Middleware
}

// RowSet 是一次查询完整读出来的结果
type RowSet struct {
	Rows    []Row
	Columns []*sql.ColumnType
}

func chain(c core, root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

func queryHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	rows, err := sess.queryContext(ctx, qc.Statement.SQL, qc.Statement.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	// 读完就关闭, 不能把连接带出这个函数
	defer rows.Close()
	rs, err := scanRows(rows, c.registry)
	return &QueryResult{Result: rs, Err: err}
}

func query(ctx context.Context, sess Session, qc *QueryContext) (*RowSet, error) {
	c := sess.getCore()
	root := chain(c, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return queryHandler(ctx, sess, c, qc)
	})
	res := root(ctx, qc)
	rs, _ := res.Result.(*RowSet)
	if rs == nil && res.Err == nil {
		rs = &RowSet{}
	}
	return rs, res.Err
}

func execHandler(ctx context.Context, sess Session, qc *QueryContext) *QueryResult {
	res, err := sess.execContext(ctx, qc.Statement.SQL, qc.Statement.Args...)
	return &QueryResult{Result: res, Err: err}
}

func exec(ctx context.Context, sess Session, qc *QueryContext) (sql.Result, error) {
	c := sess.getCore()
	root := chain(c, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, qc)
	})
	res := root(ctx, qc)
	var sqlRes sql.Result
	if val, ok := res.Result.(sql.Result); ok {
		sqlRes = val
	}
	return sqlRes, res.Err
}

// scanRows 把结果集读成 Row, 每一列都经过类型解析器
func scanRows(rows *sql.Rows, registry *typeparser.Registry) (*RowSet, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	rs := &RowSet{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			val, err := registry.Parse(col.DatabaseTypeName(), vals[i])
			if err != nil {
				return nil, err
			}
			row[col.Name()] = val
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}
