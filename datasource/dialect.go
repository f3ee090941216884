package datasource

import (
	"strconv"
	"strings"
)

var (
	DialectPostgreSQL Dialect = postgresDialect{}
	DialectMySQL      Dialect = mysqlDialect{}
	DialectSQLite     Dialect = sqliteDialect{}
)

type Dialect interface {
	Name() string

	// quoter 就是为了解决引号问题
	// MySQL 反引号 `
	// PostgreSQL 是双引号
	quoter() byte

	// placeholder 第 idx 个参数的占位符, idx 从 1 开始
	placeholder(idx int) string
	// ordinal 占位符是否带序号, 如 $1
	// 带序号的占位符和参数的顺序无关, 不带序号的 ? 必须和参数的顺序一致
	ordinal() bool

	// ilike 大小写不敏感的 LIKE
	ilike() string
	textCast(col string) string

	supportsReturning() bool

	// columnsQuery 查询表的列, 按照列定义的顺序返回
	columnsQuery(table string) Statement

	// buildInsertIgnore 插入, 主键冲突的时候什么都不做
	buildInsertIgnore(b *builder, table string, cols []string, vals []any)
}

type standardSQL struct{}

func (standardSQL) quoter() byte {
	return '"'
}

func (standardSQL) placeholder(idx int) string {
	return "?"
}

func (standardSQL) ordinal() bool {
	return false
}

func (standardSQL) ilike() string {
	return "LIKE"
}

func (standardSQL) textCast(col string) string {
	return "CAST(" + col + " AS CHAR)"
}

func (standardSQL) supportsReturning() bool {
	return false
}

func buildInsertValues(b *builder, table string, cols []string, vals []any) {
	b.quoteTable(table)
	b.sb.WriteByte('(')
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.quote(col)
	}
	b.sb.WriteString(") VALUES (")
	for i, val := range vals {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.param(val)
	}
	b.sb.WriteByte(')')
}

type postgresDialect struct {
	standardSQL
}

func (postgresDialect) Name() string {
	return "postgres"
}

func (postgresDialect) placeholder(idx int) string {
	return "$" + strconv.Itoa(idx)
}

func (postgresDialect) ordinal() bool {
	return true
}

func (postgresDialect) ilike() string {
	return "ILIKE"
}

func (postgresDialect) textCast(col string) string {
	return col + "::text"
}

func (postgresDialect) supportsReturning() bool {
	return true
}

func (postgresDialect) columnsQuery(table string) Statement {
	schema, name := splitTable(table)
	if schema == "" {
		return Statement{
			SQL:  "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
			Args: []any{name},
		}
	}
	return Statement{
		SQL:  "SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position",
		Args: []any{schema, name},
	}
}

func (d postgresDialect) buildInsertIgnore(b *builder, table string, cols []string, vals []any) {
	b.sb.WriteString("INSERT INTO ")
	buildInsertValues(b, table, cols, vals)
	b.sb.WriteString(" ON CONFLICT DO NOTHING")
}

type mysqlDialect struct {
	standardSQL
}

func (mysqlDialect) Name() string {
	return "mysql"
}

func (mysqlDialect) quoter() byte {
	return '`'
}

func (mysqlDialect) columnsQuery(table string) Statement {
	schema, name := splitTable(table)
	if schema == "" {
		return Statement{
			SQL:  "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
			Args: []any{name},
		}
	}
	return Statement{
		SQL:  "SELECT column_name FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position",
		Args: []any{schema, name},
	}
}

func (mysqlDialect) buildInsertIgnore(b *builder, table string, cols []string, vals []any) {
	b.sb.WriteString("INSERT IGNORE INTO ")
	buildInsertValues(b, table, cols, vals)
}

type sqliteDialect struct {
	standardSQL
}

func (sqliteDialect) Name() string {
	return "sqlite3"
}

func (sqliteDialect) quoter() byte {
	return '`'
}

func (sqliteDialect) textCast(col string) string {
	return "CAST(" + col + " AS TEXT)"
}

// SQLite 3.35 之后支持 RETURNING
func (sqliteDialect) supportsReturning() bool {
	return true
}

func (sqliteDialect) columnsQuery(table string) Statement {
	_, name := splitTable(table)
	return Statement{
		SQL:  "SELECT name FROM pragma_table_info(?) ORDER BY cid",
		Args: []any{name},
	}
}

func (sqliteDialect) buildInsertIgnore(b *builder, table string, cols []string, vals []any) {
	b.sb.WriteString("INSERT OR IGNORE INTO ")
	buildInsertValues(b, table, cols, vals)
}

// splitTable 把 schema.table 拆成两部分
func splitTable(table string) (string, string) {
	if idx := strings.LastIndexByte(table, '.'); idx >= 0 {
		return table[:idx], table[idx+1:]
	}
	return "", table
}
