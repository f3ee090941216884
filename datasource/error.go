package datasource

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

// 通过桥接的方式将内部错误导出外部
var (
	ErrInvalidQuery              = errs.ErrInvalidQuery
	ErrInvalidQueryParameters    = errs.ErrInvalidQueryParameters
	ErrUniqueConstraintViolation = errs.ErrUniqueConstraintViolation
	ErrForeignKeyViolation       = errs.ErrForeignKeyViolation
	ErrDatabase                  = errs.ErrDatabase
	ErrInvalidPageSize           = errs.ErrInvalidPageSize
)

type DatabaseError = errs.DatabaseError

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDupEntry          = 1062
	mysqlRowIsReferenced   = 1451
	mysqlNoReferencedRow   = 1452
	mysqlRowIsReferencedV2 = 1217
	mysqlNoReferencedRowV2 = 1216
)

// translateError 把驱动的错误翻译成统一的分类
// 调用方永远拿不到裸的驱动错误码
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidQueryParameters) ||
		errors.As(err, &dbErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		kind := ErrDatabase
		switch pqErr.Code {
		case pgUniqueViolation:
			kind = ErrUniqueConstraintViolation
		case pgForeignKeyViolation:
			kind = ErrForeignKeyViolation
		}
		return &DatabaseError{
			Kind:       kind,
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Cause:      err,
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		kind := ErrDatabase
		switch myErr.Number {
		case mysqlDupEntry:
			kind = ErrUniqueConstraintViolation
		case mysqlRowIsReferenced, mysqlNoReferencedRow,
			mysqlRowIsReferencedV2, mysqlNoReferencedRowV2:
			kind = ErrForeignKeyViolation
		}
		return &DatabaseError{
			Kind:  kind,
			Code:  strconv.Itoa(int(myErr.Number)),
			Cause: err,
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		kind := ErrDatabase
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			kind = ErrUniqueConstraintViolation
		case sqlite3.ErrConstraintForeignKey:
			kind = ErrForeignKeyViolation
		}
		return &DatabaseError{
			Kind:  kind,
			Code:  liteErr.ExtendedCode.Error(),
			Cause: err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &DatabaseError{Kind: ErrDatabase, Code: "canceled", Cause: err}
	}
	return &DatabaseError{Kind: ErrDatabase, Cause: err}
}
