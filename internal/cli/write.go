package cli

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/startdusk/erp-datasource/datasource"
)

// WriteOptions INSERT, UPDATE, DELETE 共用的参数
type WriteOptions struct {
	*RootOptions
	PrimaryKey string
	Values     string
	Where      string
	Params     []string
	Key        string
	SQL        string
	Audit      bool
	User       string
	IP         string
}

func (opts *WriteOptions) bind(cmd *cobra.Command, withValues, withWhere bool) {
	cmd.Flags().StringVar(&opts.PrimaryKey, "pk", "id", "主键列")
	if withValues {
		cmd.Flags().StringVar(&opts.Values, "values", "", "列的值, JSON 对象")
	}
	if withWhere {
		cmd.Flags().StringVar(&opts.Where, "where", "", "WHERE 之后的条件")
		cmd.Flags().StringVar(&opts.Key, "key", "", "被修改记录的主键, 审计时使用")
	}
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "按顺序对应占位符的参数")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "原样执行的 SQL, 不再根据表名和值生成")
	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "写一条活动记录")
	cmd.Flags().StringVar(&opts.User, "user", "", "审计记录的用户")
	cmd.Flags().StringVar(&opts.IP, "ip", "", "审计记录的来源 IP")
}

func (opts *WriteOptions) header() datasource.Header {
	return datasource.Header{User: opts.User, IP: opts.IP}
}

func (opts *WriteOptions) values() (map[string]any, error) {
	if opts.Values == "" {
		return nil, nil
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(opts.Values)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, WrapExitError(ExitCommandError, "--values 不是合法的 JSON 对象", err)
	}
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			raw[k] = parseValue(n.String())
		}
	}
	return raw, nil
}

func (opts *WriteOptions) key() any {
	if opts.Key == "" {
		return nil
	}
	return parseValue(opts.Key)
}

func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "插入一条记录",
		Long: `插入一条记录, 只会写入表里面存在的列.

Example:
  dsctl insert producto --values '{"nombre":"mesa","precio":12.5}' --audit --user ana`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := opts.values()
			if err != nil {
				return err
			}
			q := datasource.NewInsert(args[0], opts.PrimaryKey, vals)
			q.SQL, q.Params = opts.SQL, parseValues(opts.Params)
			if opts.Audit {
				q.Audited(opts.header())
			}
			return execWrite(cmd, opts, q)
		},
	}
	opts.bind(cmd, true, false)
	return cmd
}

func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "修改满足条件的记录",
		Long: `修改满足条件的记录, --where 不能为空.

Example:
  dsctl update producto --values '{"precio":15}' --where 'id = $1' -p 7 --audit --user ana`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := opts.values()
			if err != nil {
				return err
			}
			q := datasource.NewUpdate(args[0], opts.PrimaryKey, vals, opts.Where, parseValues(opts.Params)...)
			q.SQL, q.Key = opts.SQL, opts.key()
			if opts.Audit {
				q.Audited(opts.header())
			}
			return execWrite(cmd, opts, q)
		},
	}
	opts.bind(cmd, true, true)
	return cmd
}

func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "删除满足条件的记录",
		Long: `删除满足条件的记录, --where 不能为空.

Example:
  dsctl delete producto --where 'id = $1' -p 7 --audit --user ana`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := datasource.NewDelete(args[0], opts.PrimaryKey, opts.Where, parseValues(opts.Params)...)
			q.SQL, q.Key = opts.SQL, opts.key()
			if opts.Audit {
				q.Audited(opts.header())
			}
			return execWrite(cmd, opts, q)
		},
	}
	opts.bind(cmd, false, true)
	return cmd
}

func execWrite(cmd *cobra.Command, opts *WriteOptions, q datasource.Query) error {
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	res, err := sess.svc.CreateQuery(cmd.Context(), q)
	if err != nil {
		return queryError(out, err)
	}
	return out.Result(res)
}
