package datasource

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
	"github.com/startdusk/erp-datasource/datasource/typeparser"
)

var (
	_ Session = &DB{}
)

type DBOption func(db *DB)

// DB 对连接池的封装, 整个进程共享一个, 由调用方创建和关闭
type DB struct {
	core
	db *sql.DB
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// beginConnTx 单独拿出一个连接开启事务, 事务结束之后调用 Tx.Close 归还连接
func (db *DB) beginConnTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	conn, err := db.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Tx{tx: tx, db: db, conn: conn}, nil
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) DoTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			rollbackErr := tx.Rollback()
			err = errs.NewErrFailedToRollbackTx(err, rollbackErr, panicked)
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(ctx, tx)
	// 执行过程中没有发生panic, 则标志位置为false
	panicked = false
	return err
}

// Close 关闭连接池, 进程优雅退出的时候调用
func (db *DB) Close() error {
	return db.db.Close()
}

func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	// 根据驱动推断方言, 用户指定的方言优先
	opts = append([]DBOption{DBWithDialect(dialectOf(driver))}, opts...)
	return OpenDB(db, opts...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	newDB := &DB{
		core: core{
			dialect:  DialectPostgreSQL,
			registry: typeparser.Default(),
			logger:   slog.Default(),
		},
		db: db,
	}

	for _, opt := range opts {
		opt(newDB)
	}

	return newDB, nil
}

func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	newDB, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

func DBWithLogger(logger *slog.Logger) DBOption {
	return func(db *DB) {
		db.logger = logger
	}
}

func DBWithTypeRegistry(r *typeparser.Registry) DBOption {
	return func(db *DB) {
		db.registry = r
	}
}

// DialectOf 根据驱动名推断方言, 不认识的驱动按 PostgreSQL 处理
func DialectOf(driver string) Dialect {
	return dialectOf(driver)
}

func dialectOf(driver string) Dialect {
	switch {
	case strings.HasPrefix(driver, "mysql"):
		return DialectMySQL
	case strings.HasPrefix(driver, "sqlite"):
		return DialectSQLite
	}
	return DialectPostgreSQL
}
