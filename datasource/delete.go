package datasource

import (
	"context"
	"log/slog"
)

type deleteBuilder struct {
	baseBuilder
}

func newDeleteBuilder(logger *slog.Logger) *deleteBuilder {
	return &deleteBuilder{baseBuilder: newBaseBuilder(logger, "delete")}
}

func (d *deleteBuilder) statement(dialect Dialect, f *formatted) Statement {
	q := f.query.(*DeleteQuery)
	if q.SQL != "" {
		return Statement{SQL: q.SQL, Args: q.Params}
	}
	b := newBuilder(dialect, q.Params...)
	b.sb.WriteString("DELETE FROM ")
	b.quoteTable(q.Table)
	b.sb.WriteString(" WHERE ")
	b.sb.WriteString(q.Where)
	b.sb.WriteByte(';')
	return b.statement()
}

func (d *deleteBuilder) build(ctx context.Context, sess Session, f *formatted) (*ResultQuery, error) {
	q := f.query.(*DeleteQuery)
	stmt := d.statement(sess.getCore().dialect, f)
	res, err := runMutation(ctx, sess, &QueryContext{Type: "DELETE", Table: q.Table, Statement: &stmt})
	if err != nil {
		return nil, d.fail(ctx, stmt, err)
	}
	res.Message = mutationMessage(KindDelete, res.RowCount)
	return res, nil
}
