package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

type SeqOptions struct {
	*RootOptions
	Column string
	Rows   int64
	User   string
}

func NewSeqCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeqOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seq <table>",
		Short: "为表分配一段连续的主键",
		Long: `为表分配 --rows 个连续的主键, 输出第一个.
序号表里面没有这张表的时候, 从表里面现有的最大主键开始.

Example:
  dsctl seq pedido --rows 10 --user ana`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeq(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Column, "column", "id", "主键列")
	cmd.Flags().Int64Var(&opts.Rows, "rows", 1, "需要的个数")
	cmd.Flags().StringVar(&opts.User, "user", "", "操作人")

	return cmd
}

func runSeq(cmd *cobra.Command, opts *SeqOptions, table string) error {
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	first, err := sess.svc.GetSeqTable(cmd.Context(), table, opts.Column, opts.Rows, opts.User)
	if err != nil {
		return queryError(out, err)
	}
	return out.Value("first", first)
}

type ColumnsOptions struct {
	*RootOptions
	Refresh bool
}

func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ColumnsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "columns <table>...",
		Short: "查看表的列",
		Long: `按照定义的顺序输出表的列. 加上 --refresh 先从数据库重新读取, 再写入缓存.

Example:
  dsctl columns producto detalle --refresh --cache redis`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "刷新缓存")

	return cmd
}

func runColumns(cmd *cobra.Command, opts *ColumnsOptions, tables []string) error {
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if opts.Refresh {
		if err = sess.svc.UpdateTableColumnsCache(cmd.Context(), tables...); err != nil {
			return queryError(out, err)
		}
	}
	res := make(map[string][]string, len(tables))
	for _, table := range tables {
		cols, err := sess.svc.GetTableColumns(cmd.Context(), table)
		if err != nil {
			return queryError(out, err)
		}
		res[table] = cols
	}
	if opts.Format == "json" {
		return out.Value("columns", res)
	}
	for _, table := range tables {
		if err = out.Value(table, strings.Join(res[table], ", ")); err != nil {
			return err
		}
	}
	return nil
}
