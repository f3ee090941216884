package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

type insertBuilder struct {
	baseBuilder
}

func newInsertBuilder(logger *slog.Logger) *insertBuilder {
	return &insertBuilder{baseBuilder: newBaseBuilder(logger, "insert")}
}

func (i *insertBuilder) statement(d Dialect, f *formatted) Statement {
	q := f.query.(*InsertQuery)
	if q.SQL != "" {
		return Statement{SQL: q.SQL, Args: q.Params}
	}
	b := newBuilder(d)
	b.sb.WriteString("INSERT INTO ")
	b.quoteTable(q.Table)
	b.sb.WriteByte('(')
	for idx, col := range f.cols {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		b.quote(col)
	}
	b.sb.WriteString(") VALUES (")
	for idx, col := range f.cols {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		b.param(f.values[col])
	}
	b.sb.WriteByte(')')
	if d.supportsReturning() {
		b.sb.WriteString(" RETURNING *")
	}
	b.sb.WriteByte(';')
	return b.statement()
}

func (i *insertBuilder) build(ctx context.Context, sess Session, f *formatted) (*ResultQuery, error) {
	q := f.query.(*InsertQuery)
	stmt := i.statement(sess.getCore().dialect, f)
	qc := &QueryContext{Type: "INSERT", Table: q.Table, Statement: &stmt}
	res := &ResultQuery{Rows: []Row{}}

	if returnsRows(stmt.SQL) {
		rs, err := query(ctx, sess, qc)
		if err != nil {
			return nil, i.fail(ctx, stmt, err)
		}
		if rs.Rows != nil {
			res.Rows = rs.Rows
		}
		res.RowCount = int64(len(rs.Rows))
	} else {
		sqlRes, err := exec(ctx, sess, qc)
		if err != nil {
			return nil, i.fail(ctx, stmt, err)
		}
		res.RowCount, res.LastInsertID = affected(sqlRes)
	}
	res.Message = mutationMessage(KindInsert, res.RowCount)
	return res, nil
}

// returnsRows 带 RETURNING 的语句需要用查询去执行
func returnsRows(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "RETURNING")
}

func affected(res sql.Result) (int64, int64) {
	if res == nil {
		return 0, 0
	}
	n, _ := res.RowsAffected()
	// PostgreSQL 的驱动不支持 LastInsertId, 忽略错误
	id, _ := res.LastInsertId()
	return n, id
}

func mutationMessage(kind Kind, n int64) string {
	var one, many, none string
	switch kind {
	case KindInsert:
		one, many, none = "Se insertó 1 registro correctamente", "Se insertaron %d registros correctamente", "No se insertó ningún registro"
	case KindUpdate:
		one, many, none = "Se actualizó 1 registro correctamente", "Se actualizaron %d registros correctamente", "No se actualizó ningún registro"
	case KindDelete:
		one, many, none = "Se eliminó 1 registro correctamente", "Se eliminaron %d registros correctamente", "No se eliminó ningún registro"
	default:
		return msgOK
	}
	switch n {
	case 0:
		return none
	case 1:
		return one
	}
	return fmt.Sprintf(many, n)
}
