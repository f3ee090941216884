package datasource

import (
	"strings"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

// Validate 在任何语句发出去之前做结构检查, 没有副作用
func Validate(q Query, d Dialect) error {
	if q == nil {
		return errs.NewErrUnknownKind(nil)
	}
	return q.validate(d)
}

func (q *SelectQuery) validate(d Dialect) error {
	if strings.TrimSpace(q.SQL) == "" {
		return errs.NewErrEmptySQL()
	}
	if q.Lazy {
		if q.Pagination == nil {
			return errs.NewErrMissingPagination()
		}
		if q.Pagination.PageSize <= 0 {
			return ErrInvalidPageSize
		}
		if q.Pagination.PageIndex < 0 {
			return errs.NewErrInvalidQuery("页码不能小于0")
		}
	}
	for _, f := range q.Filters {
		if !isValidIdentifier(f.Column) {
			return errs.NewErrInvalidIdentifier(f.Column)
		}
		if !f.Operator.supported() {
			return errs.NewErrUnsupportedOperator(string(f.Operator))
		}
	}
	if q.GlobalFilter != nil {
		if len(q.GlobalFilter.Columns) == 0 {
			return errs.NewErrInvalidQuery("全局过滤没有指定列")
		}
		for _, col := range q.GlobalFilter.Columns {
			if !isValidIdentifier(col) {
				return errs.NewErrInvalidIdentifier(col)
			}
		}
	}
	return checkParams(q.SQL, q.Params, d)
}

func (q *InsertQuery) validate(d Dialect) error {
	if err := checkTarget(q.Table, q.PrimaryKey, true); err != nil {
		return err
	}
	if err := checkValues(q.Values); err != nil {
		return err
	}
	return checkParams(q.SQL, q.Params, d)
}

func (q *UpdateQuery) validate(d Dialect) error {
	if err := checkTarget(q.Table, q.PrimaryKey, q.Audit); err != nil {
		return err
	}
	if strings.TrimSpace(q.Where) == "" {
		return errs.NewErrEmptyWhere()
	}
	if err := checkValues(q.Values); err != nil {
		return err
	}
	return checkParams(q.rawOrWhere(), q.Params, d)
}

func (q *DeleteQuery) validate(d Dialect) error {
	if err := checkTarget(q.Table, q.PrimaryKey, q.Audit); err != nil {
		return err
	}
	if strings.TrimSpace(q.Where) == "" {
		return errs.NewErrEmptyWhere()
	}
	return checkParams(q.rawOrWhere(), q.Params, d)
}

// rawOrWhere 原生 SQL 模式下参数对应 SQL, 否则对应 WHERE 片段
func (q *UpdateQuery) rawOrWhere() string {
	if q.SQL != "" {
		return q.SQL
	}
	return q.Where
}

func (q *DeleteQuery) rawOrWhere() string {
	if q.SQL != "" {
		return q.SQL
	}
	return q.Where
}

func checkTarget(table, pk string, needPK bool) error {
	if table == "" {
		return errs.NewErrEmptyTable()
	}
	if !isValidIdentifier(table) {
		return errs.NewErrInvalidIdentifier(table)
	}
	if pk == "" {
		if needPK {
			return errs.NewErrEmptyPrimaryKey()
		}
		return nil
	}
	if !isValidIdentifier(pk) {
		return errs.NewErrInvalidIdentifier(pk)
	}
	return nil
}

func checkValues(values map[string]any) error {
	if len(values) == 0 {
		return errs.NewErrEmptyValues()
	}
	for col := range values {
		if !isValidIdentifier(col) {
			return errs.NewErrInvalidIdentifier(col)
		}
	}
	return nil
}

func checkParams(sql string, params []any, d Dialect) error {
	n := countPlaceholders(sql, d.ordinal())
	if n != len(params) {
		return errs.NewErrParamsMismatch(n, len(params))
	}
	return nil
}

// countPlaceholders 统计 SQL 里面的占位符
// 带序号的占位符 $n 返回最大的序号, 同一个序号可以出现多次
// ? 占位符按出现的次数计算
// 字符串, 带引号的标识符和注释里面的内容不算
func countPlaceholders(sql string, ordinal bool) int {
	cnt, maxIdx := 0, 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i, c)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return maxOf(cnt, maxIdx, ordinal)
			}
			i += end + 3
		case ordinal && c == '$':
			j := i + 1
			idx := 0
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				idx = idx*10 + int(sql[j]-'0')
				j++
			}
			if j > i+1 && idx > maxIdx {
				maxIdx = idx
			}
			i = j - 1
		case !ordinal && c == '?':
			cnt++
		}
	}
	return maxOf(cnt, maxIdx, ordinal)
}

func maxOf(cnt, maxIdx int, ordinal bool) int {
	if ordinal {
		return maxIdx
	}
	return cnt
}

// skipQuoted 返回闭合引号的位置, 连续两个引号是转义
func skipQuoted(sql string, start int, quote byte) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != quote {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return len(sql)
}
