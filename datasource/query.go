package datasource

// Kind 标记查询的种类, 种类是封闭的, 只有下面四种
type Kind uint8

const (
	KindSelect Kind = iota + 1
	KindInsert
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// Header 是发起查询的上下文, 审计的时候使用
type Header struct {
	User string
	IP   string
}

// Query 代表一条待执行的 SQL 描述
// 只有本包里面的 SelectQuery, InsertQuery, UpdateQuery 和 DeleteQuery 实现了它
type Query interface {
	Kind() Kind
	base() *QueryBase
	validate(d Dialect) error
}

// QueryBase 是所有查询共有的部分
type QueryBase struct {
	// SQL 原生 SQL, SELECT 必须有
	// INSERT, UPDATE, DELETE 如果不为空, 就按原样执行, 不再根据表名和值生成
	SQL string
	// Params 按顺序对应 SQL 里面的占位符
	Params []any
	// Audit 为 true 的写操作会产生一条活动记录
	Audit  bool
	Header Header
}

func (q *QueryBase) base() *QueryBase {
	return q
}

type SelectQuery struct {
	QueryBase
	Pagination *Pagination
	// JumpToLast 跳到最后一页, 需要先算出总数
	JumpToLast   bool
	Filters      []Filter
	GlobalFilter *GlobalFilter
	// Lazy 为 false 的时候分页和过滤都不生效
	Lazy bool
	// Schema 为 true 的时候返回列的元数据
	Schema bool
}

func NewSelect(sql string, params ...any) *SelectQuery {
	return &SelectQuery{
		QueryBase: QueryBase{SQL: sql, Params: params},
	}
}

func (q *SelectQuery) Kind() Kind { return KindSelect }

// Paginate 开启分页, pageIndex 从 0 开始
func (q *SelectQuery) Paginate(pageSize, pageIndex int) *SelectQuery {
	q.Lazy = true
	q.Pagination = &Pagination{
		PageSize:  pageSize,
		PageIndex: pageIndex,
	}
	return q
}

// LastPage 跳到最后一页
func (q *SelectQuery) LastPage() *SelectQuery {
	q.Lazy = true
	q.JumpToLast = true
	return q
}

func (q *SelectQuery) Filter(col string, op Operator, val any) *SelectQuery {
	q.Lazy = true
	q.Filters = append(q.Filters, Filter{Column: col, Operator: op, Value: val})
	return q
}

// Search 在多个列上做模糊搜索, 列之间是 OR 的关系
func (q *SelectQuery) Search(val any, cols ...string) *SelectQuery {
	q.Lazy = true
	q.GlobalFilter = &GlobalFilter{Columns: cols, Value: val}
	return q
}

func (q *SelectQuery) WithSchema() *SelectQuery {
	q.Schema = true
	return q
}

type InsertQuery struct {
	QueryBase
	Table      string
	PrimaryKey string
	Values     map[string]any
}

func NewInsert(table, primaryKey string, values map[string]any) *InsertQuery {
	return &InsertQuery{
		Table:      table,
		PrimaryKey: primaryKey,
		Values:     values,
	}
}

func (q *InsertQuery) Kind() Kind { return KindInsert }

func (q *InsertQuery) Audited(h Header) *InsertQuery {
	q.Audit = true
	q.Header = h
	return q
}

type UpdateQuery struct {
	QueryBase
	Table      string
	PrimaryKey string
	Values     map[string]any
	// Where 是 WHERE 之后的片段, 占位符对应 Params
	Where string
	// Key 被修改的记录的主键值, 为空的时候审计会根据 Values 或者 Where 去找
	Key any
}

func NewUpdate(table, primaryKey string, values map[string]any, where string, params ...any) *UpdateQuery {
	return &UpdateQuery{
		QueryBase:  QueryBase{Params: params},
		Table:      table,
		PrimaryKey: primaryKey,
		Values:     values,
		Where:      where,
	}
}

func (q *UpdateQuery) Kind() Kind { return KindUpdate }

func (q *UpdateQuery) Audited(h Header) *UpdateQuery {
	q.Audit = true
	q.Header = h
	return q
}

type DeleteQuery struct {
	QueryBase
	Table      string
	PrimaryKey string
	Where      string
	Key        any
}

func NewDelete(table, primaryKey string, where string, params ...any) *DeleteQuery {
	return &DeleteQuery{
		QueryBase:  QueryBase{Params: params},
		Table:      table,
		PrimaryKey: primaryKey,
		Where:      where,
	}
}

func (q *DeleteQuery) Kind() Kind { return KindDelete }

func (q *DeleteQuery) Audited(h Header) *DeleteQuery {
	q.Audit = true
	q.Header = h
	return q
}
