package datasource

import (
	"context"
	"log/slog"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

const DefaultSequenceTable = "sis_secuencia"

// 序列表的列
const (
	seqColTable = "tabla"
	seqColValue = "valor"
	seqColUser  = "usuario"
	seqColDate  = "fecha"
)

// GetSeqTable 从序列表里面申请连续 rowsNeeded 个主键, 返回第一个可用的值
// 序列表里面没有这张表的时候, 用表里面当前最大的主键初始化
// 并发安全依赖数据库的行锁, 支持 RETURNING 的数据库只用一条 UPDATE
func (s *Service) GetSeqTable(ctx context.Context, table, pkCol string, rowsNeeded int64, actor string) (int64, error) {
	if rowsNeeded <= 0 {
		return 0, errs.NewErrInvalidQuery("申请的序列数量必须大于0")
	}
	for _, name := range []string{table, pkCol, s.seqTable} {
		if !isValidIdentifier(name) {
			return 0, errs.NewErrInvalidIdentifier(name)
		}
	}

	var (
		val int64
		err error
	)
	if s.db.dialect.supportsReturning() {
		val, err = s.allocate(ctx, s.db, table, pkCol, rowsNeeded, actor)
	} else {
		err = s.db.DoTx(ctx, func(ctx context.Context, tx *Tx) error {
			var err error
			val, err = s.allocate(ctx, tx, table, pkCol, rowsNeeded, actor)
			return err
		}, nil)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "申请序列失败", slog.String("table", table), slog.Any("err", err))
		return 0, translateError(err)
	}
	return val - rowsNeeded + 1, nil
}

func (s *Service) allocate(ctx context.Context, sess Session, table, pkCol string, n int64, actor string) (int64, error) {
	val, found, err := s.advance(ctx, sess, table, n, actor)
	if err != nil || found {
		return val, err
	}
	if err = s.seed(ctx, sess, table, pkCol, actor); err != nil {
		return 0, err
	}
	val, found, err = s.advance(ctx, sess, table, n, actor)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errs.NewErrUnknownTable(s.seqTable)
	}
	return val, nil
}

// advance 把序列往前推 n, 返回推进之后的值
func (s *Service) advance(ctx context.Context, sess Session, table string, n int64, actor string) (int64, bool, error) {
	d := sess.getCore().dialect
	b := newBuilder(d)
	b.sb.WriteString("UPDATE ")
	b.quoteTable(s.seqTable)
	b.sb.WriteString(" SET ")
	b.quote(seqColValue)
	b.sb.WriteByte('=')
	b.quote(seqColValue)
	b.sb.WriteByte('+')
	b.param(n)
	b.sb.WriteByte(',')
	b.quote(seqColUser)
	b.sb.WriteByte('=')
	b.param(actor)
	b.sb.WriteByte(',')
	b.quote(seqColDate)
	b.sb.WriteByte('=')
	b.param(s.now())
	b.sb.WriteString(" WHERE ")
	b.quote(seqColTable)
	b.sb.WriteByte('=')
	b.param(table)

	if d.supportsReturning() {
		b.sb.WriteString(" RETURNING ")
		b.quote(seqColValue)
		stmt := b.statement()
		rs, err := query(ctx, sess, &QueryContext{Type: "UPDATE", Table: s.seqTable, Statement: &stmt})
		if err != nil || len(rs.Rows) == 0 {
			return 0, false, err
		}
		val, err := toInt64(rs.Rows[0][seqColValue])
		return val, true, err
	}

	stmt := b.statement()
	res, err := exec(ctx, sess, &QueryContext{Type: "UPDATE", Table: s.seqTable, Statement: &stmt})
	if err != nil {
		return 0, false, err
	}
	if n, _ := affected(res); n == 0 {
		return 0, false, nil
	}
	sb := newBuilder(d)
	sb.sb.WriteString("SELECT ")
	sb.quote(seqColValue)
	sb.sb.WriteString(" FROM ")
	sb.quoteTable(s.seqTable)
	sb.sb.WriteString(" WHERE ")
	sb.quote(seqColTable)
	sb.sb.WriteByte('=')
	sb.param(table)
	sel := sb.statement()
	rs, err := query(ctx, sess, &QueryContext{Type: "SELECT", Table: s.seqTable, Statement: &sel})
	if err != nil || len(rs.Rows) == 0 {
		return 0, false, err
	}
	val, err := toInt64(rs.Rows[0][seqColValue])
	return val, true, err
}

// seed 用表里面当前最大的主键初始化序列, 别人先初始化了也没关系
func (s *Service) seed(ctx context.Context, sess Session, table, pkCol, actor string) error {
	d := sess.getCore().dialect
	b := newBuilder(d)
	b.sb.WriteString("SELECT COALESCE(MAX(")
	b.quote(pkCol)
	b.sb.WriteString("),0) AS ")
	b.quote("max_id")
	b.sb.WriteString(" FROM ")
	b.quoteTable(table)
	stmt := b.statement()
	rs, err := query(ctx, sess, &QueryContext{Type: "SELECT", Table: table, Statement: &stmt})
	if err != nil {
		return err
	}
	var maxID int64
	if len(rs.Rows) > 0 {
		if maxID, err = toInt64(rs.Rows[0]["max_id"]); err != nil {
			return err
		}
	}

	ib := newBuilder(d)
	d.buildInsertIgnore(ib,
		s.seqTable,
		[]string{seqColTable, seqColValue, seqColUser, seqColDate},
		[]any{table, maxID, actor, s.now()})
	ins := ib.statement()
	_, err = exec(ctx, sess, &QueryContext{Type: "INSERT", Table: s.seqTable, Statement: &ins})
	return err
}
