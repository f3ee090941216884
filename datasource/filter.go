package datasource

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

// wrappedAlias 调用方的 SQL 被包装成子查询之后的别名
const wrappedAlias = "wrapped_query"

type Operator string

const (
	OpILike   Operator = "ILIKE"
	OpLike    Operator = "LIKE"
	OpEq      Operator = "="
	OpNotEq   Operator = "!="
	OpNe      Operator = "<>"
	OpGt      Operator = ">"
	OpLt      Operator = "<"
	OpGte     Operator = ">="
	OpLte     Operator = "<="
	OpIn      Operator = "IN"
	OpBetween Operator = "BETWEEN"
)

func (o Operator) String() string {
	return string(o)
}

func (o Operator) supported() bool {
	switch o.normalize() {
	case OpILike, OpLike, OpEq, OpNotEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpIn, OpBetween:
		return true
	}
	return false
}

func (o Operator) normalize() Operator {
	return Operator(strings.ToUpper(strings.TrimSpace(string(o))))
}

type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// GlobalFilter 在多个列上做模糊匹配, 任意一列匹配即可
type GlobalFilter struct {
	Columns []string `json:"columns"`
	Value   any      `json:"value"`
}

func (g *GlobalFilter) active() bool {
	if g == nil || len(g.Columns) == 0 || g.Value == nil {
		return false
	}
	s, ok := g.Value.(string)
	return !ok || s != ""
}

func hasFilters(q *SelectQuery) bool {
	return len(q.Filters) > 0 || q.GlobalFilter.active()
}

// applyFilters 往 builder 里面追加 WHERE 子句
// 所有的值都作为参数绑定, 参数接在调用方的参数后面
func applyFilters(b *builder, q *SelectQuery) error {
	if !hasFilters(q) {
		return nil
	}
	b.sb.WriteString(" WHERE ")
	if len(q.Filters) > 0 {
		b.sb.WriteByte('(')
		for i, f := range q.Filters {
			if i > 0 {
				b.sb.WriteString(" AND ")
			}
			if err := buildFilter(b, f); err != nil {
				return err
			}
		}
		b.sb.WriteByte(')')
	}
	if q.GlobalFilter.active() {
		if len(q.Filters) > 0 {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteByte('(')
		for i, col := range q.GlobalFilter.Columns {
			if !isValidIdentifier(col) {
				return errs.NewErrInvalidIdentifier(col)
			}
			if i > 0 {
				b.sb.WriteString(" OR ")
			}
			buildLike(b, b.dialect.ilike(), col, q.GlobalFilter.Value)
		}
		b.sb.WriteByte(')')
	}
	return nil
}

func buildFilter(b *builder, f Filter) error {
	if !isValidIdentifier(f.Column) {
		return errs.NewErrInvalidIdentifier(f.Column)
	}
	col := wrappedAlias + "." + f.Column
	switch op := f.Operator.normalize(); op {
	case OpILike:
		buildLike(b, b.dialect.ilike(), f.Column, f.Value)
	case OpLike:
		buildLike(b, "LIKE", f.Column, f.Value)
	case OpEq, OpNotEq, OpNe, OpGt, OpLt, OpGte, OpLte:
		b.sb.WriteString(col)
		if f.Value == nil {
			switch op {
			case OpEq:
				b.sb.WriteString(" IS NULL")
				return nil
			case OpNotEq, OpNe:
				b.sb.WriteString(" IS NOT NULL")
				return nil
			}
			return errs.NewErrInvalidFilterValue(f.Column, f.Value)
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(string(op))
		b.sb.WriteByte(' ')
		b.param(f.Value)
	case OpIn:
		vals := inValues(f.Value)
		if len(vals) == 0 {
			return errs.NewErrInvalidFilterValue(f.Column, f.Value)
		}
		b.sb.WriteString(col)
		b.sb.WriteString(" IN (")
		for i, val := range vals {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			b.param(val)
		}
		b.sb.WriteByte(')')
	case OpBetween:
		lo, hi, ok := betweenValues(f.Value)
		if !ok {
			return errs.NewErrInvalidFilterValue(f.Column, f.Value)
		}
		b.sb.WriteString(col)
		b.sb.WriteString(" BETWEEN ")
		b.param(lo)
		b.sb.WriteString(" AND ")
		b.param(hi)
	default:
		return errs.NewErrUnsupportedOperator(string(f.Operator))
	}
	return nil
}

// buildLike 把列转成文本之后做模糊匹配, 值的两边加上通配符
func buildLike(b *builder, op string, column string, val any) {
	b.sb.WriteString(b.dialect.textCast(wrappedAlias + "." + column))
	b.sb.WriteByte(' ')
	b.sb.WriteString(op)
	b.sb.WriteByte(' ')
	b.param("%" + fmt.Sprint(val) + "%")
}

// inValues 支持切片, 或者逗号分隔的字符串
func inValues(val any) []any {
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		parts := strings.Split(v, ",")
		res := make([]any, 0, len(parts))
		for _, p := range parts {
			p = strings.Trim(strings.TrimSpace(p), "'")
			if p != "" {
				res = append(res, p)
			}
		}
		return res
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{val}
	}
	res := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		res = append(res, rv.Index(i).Interface())
	}
	return res
}

var betweenSep = regexp.MustCompile(`(?i)\s+AND\s+`)

// betweenValues 支持两个元素的切片, 或者 "X AND Y" 形式的字符串
func betweenValues(val any) (any, any, bool) {
	if s, ok := val.(string); ok {
		parts := betweenSep.Split(strings.TrimSpace(s), 2)
		if len(parts) != 2 {
			return nil, nil, false
		}
		lo := strings.Trim(strings.TrimSpace(parts[0]), "'")
		hi := strings.Trim(strings.TrimSpace(parts[1]), "'")
		return lo, hi, lo != "" && hi != ""
	}
	vals := inValues(val)
	if len(vals) != 2 {
		return nil, nil, false
	}
	return vals[0], vals[1], true
}
