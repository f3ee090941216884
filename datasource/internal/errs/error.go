package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidQuery              = errors.New("datasource: 非法查询")
	ErrInvalidQueryParameters    = errors.New("datasource: 查询参数个数不匹配")
	ErrUniqueConstraintViolation = errors.New("datasource: 违反唯一约束")
	ErrForeignKeyViolation       = errors.New("datasource: 违反外键约束")
	ErrDatabase                  = errors.New("datasource: 数据库错误")

	// 下面两个都属于非法查询
	ErrInvalidPageSize = fmt.Errorf("%w: 分页大小必须大于0", ErrInvalidQuery)
	ErrUnknownKind     = fmt.Errorf("%w: 未知的查询类型", ErrInvalidQuery)
)

func NewErrInvalidQuery(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, reason)
}

func NewErrEmptySQL() error {
	return NewErrInvalidQuery("SQL 为空")
}

func NewErrEmptyTable() error {
	return NewErrInvalidQuery("表名为空")
}

func NewErrEmptyPrimaryKey() error {
	return NewErrInvalidQuery("主键为空")
}

func NewErrEmptyValues() error {
	return NewErrInvalidQuery("没有需要写入的值")
}

func NewErrEmptyWhere() error {
	return NewErrInvalidQuery("缺少 WHERE 条件")
}

func NewErrMissingPagination() error {
	return NewErrInvalidQuery("分页查询缺少分页参数")
}

func NewErrInvalidIdentifier(name string) error {
	return NewErrInvalidQuery(fmt.Sprintf("非法标识符 %q", name))
}

func NewErrUnsupportedOperator(op string) error {
	return NewErrInvalidQuery(fmt.Sprintf("不支持的过滤操作符 %q", op))
}

func NewErrInvalidFilterValue(col string, val any) error {
	return NewErrInvalidQuery(fmt.Sprintf("列 %s 的过滤值非法 %v", col, val))
}

func NewErrUnknownTable(table string) error {
	return NewErrInvalidQuery(fmt.Sprintf("未知表 %s", table))
}

func NewErrParamsMismatch(placeholders, params int) error {
	return fmt.Errorf("%w: SQL 中有 %d 个占位符, 但提供了 %d 个参数", ErrInvalidQueryParameters, placeholders, params)
}

func NewErrUnknownKind(kind any) error {
	return fmt.Errorf("%w %v", ErrUnknownKind, kind)
}

// DatabaseError 是翻译之后的驱动错误
// 调用方用 errors.Is 判断分类, 用 errors.As 仍然可以拿到驱动原始错误
type DatabaseError struct {
	Kind       error
	Code       string
	Constraint string
	Cause      error
}

func (e *DatabaseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Code != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Code)
		sb.WriteByte(']')
	}
	if e.Constraint != "" {
		sb.WriteString(" 约束: ")
		sb.WriteString(e.Constraint)
	}
	if e.Cause != nil {
		sb.WriteString(", 原因: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *DatabaseError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	if rbErr == nil {
		return bizErr
	}
	return fmt.Errorf("datasource: 事务回滚失败, 业务错误: %w, 回滚错误: %s, 是否 panic: %t", bizErr, rbErr.Error(), panicked)
}
