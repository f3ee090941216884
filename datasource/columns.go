package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/startdusk/erp-datasource/cache"
	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

type sessionKey struct{}

// withSession 让缓存回源的时候使用当前的会话
// 事务里面读表结构不会再去连接池拿新的连接
func withSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func (s *Service) sessionFrom(ctx context.Context) Session {
	if sess, ok := ctx.Value(sessionKey{}).(Session); ok {
		return sess
	}
	return s.db
}

func columnsKey(table string) string {
	return "datasource:columns:" + table
}

// GetTableColumns 返回表里面的列, 按照定义的顺序
// 结果会被缓存, 表结构变化之后调用 UpdateTableColumnsCache
func (s *Service) GetTableColumns(ctx context.Context, table string) ([]string, error) {
	if !isValidIdentifier(table) {
		return nil, translateError(errs.NewErrInvalidIdentifier(table))
	}
	val, err := s.columns.Get(ctx, columnsKey(table))
	if err != nil {
		if val == nil || !errors.Is(err, cache.ErrFailedToRefreshCache) {
			return nil, translateError(err)
		}
		// 数据库读到了, 只是没有写进缓存
		s.logger.WarnContext(ctx, "表结构写入缓存失败", slog.String("table", table), slog.Any("err", err))
	}
	return decodeColumns(val)
}

// UpdateTableColumnsCache 重新加载这些表的列, 并发进行
func (s *Service) UpdateTableColumnsCache(ctx context.Context, tables ...string) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, table := range tables {
		table := table
		eg.Go(func() error {
			if !isValidIdentifier(table) {
				return errs.NewErrInvalidIdentifier(table)
			}
			return s.columns.Refresh(ctx, columnsKey(table))
		})
	}
	return translateError(eg.Wait())
}

// loadColumns 缓存没有命中的时候从数据库读
// 缓存里面存逗号分隔的字符串, 所有的缓存实现都能存
func (s *Service) loadColumns(ctx context.Context, key string) (any, error) {
	table := strings.TrimPrefix(key, columnsKey(""))
	sess := s.sessionFrom(ctx)
	stmt := sess.getCore().dialect.columnsQuery(table)
	rs, err := query(ctx, sess, &QueryContext{Type: "SELECT", Table: table, Statement: &stmt})
	if err != nil {
		s.logger.ErrorContext(ctx, "读取表结构失败", slog.String("table", table), slog.Any("err", err))
		return nil, err
	}
	cols := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		for _, val := range row {
			cols = append(cols, fmt.Sprint(val))
		}
	}
	if len(cols) == 0 {
		// 不存在的表不缓存
		return nil, errs.NewErrUnknownTable(table)
	}
	return strings.Join(cols, ","), nil
}

func decodeColumns(val any) ([]string, error) {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("datasource: 缓存里面列的类型不对 %T", val)
	}
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, ","), nil
}
