package datasource

import (
	"context"
	"log/slog"
)

type updateBuilder struct {
	baseBuilder
}

func newUpdateBuilder(logger *slog.Logger) *updateBuilder {
	return &updateBuilder{baseBuilder: newBaseBuilder(logger, "update")}
}

// statement 生成 UPDATE 语句
// $n 占位符: WHERE 里面用 $1..$m 对应 Params, SET 的值接着从 $m+1 开始编号
// ? 占位符: 参数的顺序和出现的顺序一致, 所以 SET 的值在前, Params 在后
func (u *updateBuilder) statement(d Dialect, f *formatted) Statement {
	q := f.query.(*UpdateQuery)
	if q.SQL != "" {
		return Statement{SQL: q.SQL, Args: q.Params}
	}
	var b *builder
	if d.ordinal() {
		b = newBuilder(d, q.Params...)
	} else {
		b = newBuilder(d)
	}
	b.sb.WriteString("UPDATE ")
	b.quoteTable(q.Table)
	b.sb.WriteString(" SET ")
	for idx, col := range f.cols {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		b.quote(col)
		b.sb.WriteByte('=')
		b.param(f.values[col])
	}
	b.sb.WriteString(" WHERE ")
	b.sb.WriteString(q.Where)
	b.sb.WriteByte(';')
	if !d.ordinal() {
		b.addArgs(q.Params...)
	}
	return b.statement()
}

func (u *updateBuilder) build(ctx context.Context, sess Session, f *formatted) (*ResultQuery, error) {
	q := f.query.(*UpdateQuery)
	stmt := u.statement(sess.getCore().dialect, f)
	res, err := runMutation(ctx, sess, &QueryContext{Type: "UPDATE", Table: q.Table, Statement: &stmt})
	if err != nil {
		return nil, u.fail(ctx, stmt, err)
	}
	res.Message = mutationMessage(KindUpdate, res.RowCount)
	return res, nil
}

// runMutation 执行 UPDATE 和 DELETE, 带 RETURNING 的原生语句会把行带回来
func runMutation(ctx context.Context, sess Session, qc *QueryContext) (*ResultQuery, error) {
	res := &ResultQuery{Rows: []Row{}}
	if returnsRows(qc.Statement.SQL) {
		rs, err := query(ctx, sess, qc)
		if err != nil {
			return nil, err
		}
		if rs.Rows != nil {
			res.Rows = rs.Rows
		}
		res.RowCount = int64(len(rs.Rows))
		return res, nil
	}
	sqlRes, err := exec(ctx, sess, qc)
	if err != nil {
		return nil, err
	}
	res.RowCount, _ = affected(sqlRes)
	return res, nil
}
