package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/startdusk/erp-datasource/datasource"
)

const (
	ExitSuccess = 0
	// ExitFailure 数据库执行失败, 例如违反约束
	ExitFailure = 1
	// ExitCommandError 参数, 配置或者查询本身不合法
	ExitCommandError = 2
)

// ExitError 带退出码的错误
type ExitError struct {
	Code    int
	Message string
	Err     error
	// Reported 已经按照输出格式打印过了
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode 不是 ExitError 的按照 ExitFailure 处理
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// queryError 输出数据源的错误, 并映射到退出码
func queryError(out *OutputFormatter, err error) error {
	out.Error(err)
	code := ExitFailure
	if errors.Is(err, datasource.ErrInvalidQuery) || errors.Is(err, datasource.ErrInvalidQueryParameters) {
		code = ExitCommandError
	}
	return &ExitError{Code: code, Message: "执行失败", Err: err, Reported: true}
}

// IsReported 错误是否已经输出过了
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// Response json 格式的输出
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w}
}

func (f *OutputFormatter) Error(err error) {
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Data:   datasource.NewErrorResult(err),
			Error:  err.Error(),
		})
		return
	}
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprintf(f.Writer, "错误: %v\n", err)
}

// Result 输出一条查询的结果
func (f *OutputFormatter) Result(res *datasource.ResultQuery) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: res})
	}

	if len(res.Rows) > 0 {
		if err := f.table(res); err != nil {
			return err
		}
	}
	green := color.New(color.FgGreen)
	_, _ = green.Fprintf(f.Writer, "%s (%d 行)\n", res.Message, res.RowCount)
	if p := res.Pagination; p != nil {
		cyan := color.New(color.FgCyan)
		_, _ = cyan.Fprintf(f.Writer, "第 %d/%d 页, 每页 %d 条", p.PageIndex+1, p.TotalPages, p.PageSize)
		if res.FilteredRecords != nil {
			_, _ = cyan.Fprintf(f.Writer, ", 过滤后 %d 条", *res.FilteredRecords)
		}
		if res.TotalRecords != nil {
			_, _ = cyan.Fprintf(f.Writer, ", 共 %d 条", *res.TotalRecords)
		}
		_, _ = fmt.Fprintln(f.Writer)
	}
	if res.LastInsertID != 0 {
		_, _ = fmt.Fprintf(f.Writer, "lastInsertId: %d\n", res.LastInsertID)
	}
	return nil
}

// Value 输出一个单值, 例如序号或者列名
func (f *OutputFormatter) Value(key string, val any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: map[string]any{key: val}})
	}
	_, err := fmt.Fprintf(f.Writer, "%s: %v\n", key, val)
	return err
}

func (f *OutputFormatter) table(res *datasource.ResultQuery) error {
	cols := make([]string, 0, len(res.Columns))
	for _, c := range res.Columns {
		cols = append(cols, c.Name)
	}
	if len(cols) == 0 {
		for name := range res.Rows[0] {
			cols = append(cols, name)
		}
		sort.Strings(cols)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	for i, c := range cols {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = bold.Fprint(tw, c)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range res.Rows {
		for i, c := range cols {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			val := row[c]
			if val == nil {
				val = "NULL"
			}
			_, _ = fmt.Fprint(tw, val)
		}
		_, _ = fmt.Fprintln(tw)
	}
	return tw.Flush()
}
