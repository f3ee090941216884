package datasource

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// validIdentifier 表名, 列名只允许字母, 数字, 下划线, 以及 schema.table 里面的点
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifier.MatchString(s)
}

// builder 负责拼接 SQL 和参数
type builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func newBuilder(d Dialect, args ...any) *builder {
	b := &builder{dialect: d}
	b.addArgs(args...)
	return b
}

func (b *builder) quote(name string) {
	q := b.dialect.quoter()
	b.sb.WriteByte(q)
	b.sb.WriteString(name)
	b.sb.WriteByte(q)
}

// quoteTable 对 schema.table 的每一段分别加引号
func (b *builder) quoteTable(table string) {
	for i, seg := range strings.Split(table, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		b.quote(seg)
	}
}

// param 写入一个占位符, 同时记录参数
func (b *builder) param(val any) {
	b.addArgs(val)
	b.sb.WriteString(b.dialect.placeholder(len(b.args)))
}

func (b *builder) addArgs(args ...any) {
	if len(args) == 0 {
		return
	}
	if b.args == nil {
		// 很少有查询能够超过8个参数
		// INSERT除外
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, args...)
}

func (b *builder) statement() Statement {
	return Statement{
		SQL:  b.sb.String(),
		Args: b.args,
	}
}

// queryBuilder 每种查询对应一个实现
type queryBuilder interface {
	build(ctx context.Context, sess Session, f *formatted) (*ResultQuery, error)
}

// baseBuilder 是各个 builder 共用的部分
type baseBuilder struct {
	logger *slog.Logger
}

func newBaseBuilder(logger *slog.Logger, component string) baseBuilder {
	return baseBuilder{logger: logger.With(slog.String("component", component))}
}

// fail 记录错误后原样返回, 错误的翻译统一在 Service 里面做
func (b baseBuilder) fail(ctx context.Context, stmt Statement, err error) error {
	b.logger.ErrorContext(ctx, "执行语句失败", slog.String("sql", stmt.SQL), slog.Any("err", err))
	return err
}
