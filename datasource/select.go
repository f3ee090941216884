package datasource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	msgNoRecords = "no records"
	msgOK        = "ok"
)

type selectBuilder struct {
	baseBuilder
}

func newSelectBuilder(logger *slog.Logger) *selectBuilder {
	return &selectBuilder{baseBuilder: newBaseBuilder(logger, "select")}
}

// wrap 把调用方的 SQL 包装成子查询, 分页过滤计数都在它上面做
func wrap(b *builder, head string, sql string) {
	b.sb.WriteString(head)
	b.sb.WriteString(" FROM (")
	b.sb.WriteString(sql)
	b.sb.WriteString(") AS ")
	b.sb.WriteString(wrappedAlias)
}

func (s *selectBuilder) build(ctx context.Context, sess Session, f *formatted) (*ResultQuery, error) {
	q := f.query.(*SelectQuery)
	d := sess.getCore().dialect
	res := &ResultQuery{}

	var applicable *int64
	if q.Lazy {
		total, err := s.count(ctx, sess, q, false)
		if err != nil {
			return nil, err
		}
		res.TotalRecords = &total
		applicable = &total
		if hasFilters(q) {
			filtered, err := s.count(ctx, sess, q, true)
			if err != nil {
				return nil, err
			}
			res.FilteredRecords = &filtered
			applicable = &filtered
		}
	}

	b := newBuilder(d, q.Params...)
	wrap(b, "SELECT *", q.SQL)
	if q.Lazy {
		if err := applyFilters(b, q); err != nil {
			return nil, err
		}
	}
	clause, err := paginationClause(q, applicable)
	if err != nil {
		return nil, err
	}
	b.sb.WriteString(clause)
	stmt := b.statement()

	rs, err := query(ctx, sess, &QueryContext{Type: "SELECT", Statement: &stmt})
	if err != nil {
		return nil, s.fail(ctx, stmt, err)
	}

	res.Rows = rs.Rows
	if res.Rows == nil {
		res.Rows = []Row{}
	}
	res.RowCount = int64(len(rs.Rows))
	if q.Lazy && q.Pagination != nil && applicable != nil {
		if err = q.Pagination.setMeta(*applicable); err != nil {
			return nil, err
		}
		res.Pagination = q.Pagination
	}
	if q.Schema {
		res.Columns = columnMetadata(rs.Columns)
	}
	res.Message = msgOK
	if res.RowCount == 0 {
		res.Message = msgNoRecords
	}
	return res, nil
}

// count 计算包装之后的总数, filtered 为 true 的时候带上过滤条件
func (s *selectBuilder) count(ctx context.Context, sess Session, q *SelectQuery, filtered bool) (int64, error) {
	b := newBuilder(sess.getCore().dialect, q.Params...)
	wrap(b, "SELECT COUNT(*)", q.SQL)
	if filtered {
		if err := applyFilters(b, q); err != nil {
			return 0, err
		}
	}
	stmt := b.statement()
	rs, err := query(ctx, sess, &QueryContext{Type: "SELECT", Statement: &stmt})
	if err != nil {
		return 0, s.fail(ctx, stmt, err)
	}
	if len(rs.Rows) == 0 {
		return 0, nil
	}
	for _, val := range rs.Rows[0] {
		return toInt64(val)
	}
	return 0, nil
}

// toInt64 驱动返回的数字类型五花八门
func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case decimal.Decimal:
		return v.IntPart(), nil
	case []byte:
		return toInt64(string(v))
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return 0, err
		}
		return d.IntPart(), nil
	}
	return 0, fmt.Errorf("datasource: 无法转换成整数 %T", val)
}
