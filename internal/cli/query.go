package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/startdusk/erp-datasource/datasource"
)

type QueryOptions struct {
	*RootOptions
	Params     []string
	Page       int
	Last       bool
	Filters    []string
	Search     string
	SearchCols []string
	Schema     bool
}

func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "执行 SELECT",
		Long: `执行一条 SELECT, 指定了 --page, --last, --filter 或者 --search 之后按分页查询执行.

Example:
  dsctl query 'SELECT * FROM producto WHERE empresa = $1' -p 1 --page 2
  dsctl query 'SELECT * FROM producto' --filter 'precio:>:10' --search mesa --search-col nombre`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "按顺序对应占位符的参数")
	cmd.Flags().IntVar(&opts.Page, "page", -1, "页码, 从 0 开始")
	cmd.Flags().BoolVar(&opts.Last, "last", false, "跳到最后一页")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "列过滤 列:操作符:值, IN 和 BETWEEN 的值用逗号分隔")
	cmd.Flags().StringVar(&opts.Search, "search", "", "在 --search-col 指定的列上模糊搜索")
	cmd.Flags().StringSliceVar(&opts.SearchCols, "search-col", nil, "模糊搜索的列")
	cmd.Flags().BoolVar(&opts.Schema, "schema", false, "返回列的元数据")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, sql string) error {
	q, err := opts.build(sql)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if opts.Page >= 0 {
		q.Pagination = &datasource.Pagination{PageSize: sess.cfg.Query.PageSize, PageIndex: opts.Page}
	}
	res, err := sess.svc.CreateQuery(cmd.Context(), q)
	if err != nil {
		return queryError(out, err)
	}
	return out.Result(res)
}

func (opts *QueryOptions) build(sql string) (*datasource.SelectQuery, error) {
	q := datasource.NewSelect(sql, parseValues(opts.Params)...)
	q.Schema = opts.Schema
	q.JumpToLast = opts.Last
	for _, raw := range opts.Filters {
		f, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, f)
	}
	if opts.Search != "" {
		q.GlobalFilter = &datasource.GlobalFilter{Columns: opts.SearchCols, Value: opts.Search}
	}
	q.Lazy = opts.Page >= 0 || opts.Last || len(q.Filters) > 0 || q.GlobalFilter != nil
	return q, nil
}

// parseFilter 解析 列:操作符:值
func parseFilter(raw string) (datasource.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return datasource.Filter{}, NewExitError(ExitCommandError,
			fmt.Sprintf("过滤条件 %q 的格式应该是 列:操作符:值", raw))
	}
	f := datasource.Filter{
		Column:   parts[0],
		Operator: datasource.Operator(strings.ToUpper(strings.TrimSpace(parts[1]))),
	}
	switch f.Operator {
	case datasource.OpIn:
		f.Value = parseValues(strings.Split(parts[2], ","))
	case datasource.OpBetween:
		bounds := strings.Split(parts[2], ",")
		if len(bounds) != 2 {
			return datasource.Filter{}, NewExitError(ExitCommandError,
				fmt.Sprintf("BETWEEN 需要两个值: %q", raw))
		}
		f.Value = parseValues(bounds)
	default:
		f.Value = parseValue(parts[2])
	}
	return f, nil
}

func parseValues(raw []string) []any {
	if len(raw) == 0 {
		return nil
	}
	res := make([]any, 0, len(raw))
	for _, s := range raw {
		res = append(res, parseValue(s))
	}
	return res
}

// parseValue 命令行上的值都是字符串, 能解析成数字的按数字传给数据库
// NULL 对应 nil
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
