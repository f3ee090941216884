package datasource

import (
	"context"
	"sort"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

// AuditColumns 写操作自动维护的时间和操作人列
type AuditColumns struct {
	CreatedAt string
	CreatedBy string
	UpdatedAt string
	UpdatedBy string
}

func DefaultAuditColumns() AuditColumns {
	return AuditColumns{
		CreatedAt: "created_at",
		CreatedBy: "created_by",
		UpdatedAt: "updated_at",
		UpdatedBy: "updated_by",
	}
}

func (a AuditColumns) all() []string {
	return []string{a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy}
}

// formatted 是格式化之后, 可以直接交给 builder 的查询
type formatted struct {
	query Query
	// values 最终写入的值, 只保留表里存在的列, 注入了时间和操作人
	values map[string]any
	// cols 是 values 的键, 排好序保证生成的 SQL 稳定
	cols []string
	// auditValues 调用方自己给的值, 用于审计
	auditValues map[string]any
}

// prepare 复制一份查询, 之后的修改不会影响调用方的对象
func prepare(q Query, pageSize int) Query {
	sq, ok := q.(*SelectQuery)
	if !ok {
		return q
	}
	cp := *sq
	cp.Pagination = sq.Pagination.clone()
	cp.Filters = append([]Filter(nil), sq.Filters...)
	initializeDefault(&cp, pageSize)
	return &cp
}

// format 根据线上的表结构整理写入的值
// 原生 SQL 模式不做任何改写
func (s *Service) format(ctx context.Context, q Query) (*formatted, error) {
	f := &formatted{query: q}
	var (
		table  string
		values map[string]any
		kind   = q.Kind()
	)
	switch v := q.(type) {
	case *InsertQuery:
		table, values = v.Table, v.Values
	case *UpdateQuery:
		table, values = v.Table, v.Values
	default:
		return f, nil
	}

	if q.base().SQL != "" {
		f.values = values
		f.auditValues = values
		f.cols = sortedKeys(values)
		return f, nil
	}

	live, err := s.GetTableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return nil, errs.NewErrUnknownTable(table)
	}
	liveSet := make(map[string]struct{}, len(live))
	for _, col := range live {
		liveSet[col] = struct{}{}
	}

	f.auditValues = make(map[string]any, len(values))
	for col, val := range values {
		if _, ok := liveSet[col]; ok {
			f.auditValues[col] = val
		}
	}
	if len(f.auditValues) == 0 {
		return nil, errs.NewErrEmptyValues()
	}

	f.values = make(map[string]any, len(f.auditValues)+2)
	for col, val := range f.auditValues {
		f.values[col] = val
	}
	now, user := s.now(), q.base().Header.User
	inject := func(col string, val any) {
		if _, ok := liveSet[col]; ok && col != "" {
			f.values[col] = val
		}
	}
	if kind == KindInsert {
		delete(f.values, s.auditCols.UpdatedAt)
		delete(f.values, s.auditCols.UpdatedBy)
		inject(s.auditCols.CreatedAt, now)
		if user != "" {
			inject(s.auditCols.CreatedBy, user)
		}
	} else {
		delete(f.values, s.auditCols.CreatedAt)
		delete(f.values, s.auditCols.CreatedBy)
		inject(s.auditCols.UpdatedAt, now)
		if user != "" {
			inject(s.auditCols.UpdatedBy, user)
		}
	}
	f.cols = sortedKeys(f.values)
	return f, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
