package datasource

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/startdusk/erp-datasource/cache"
	"github.com/startdusk/erp-datasource/datasource/internal/errs"
)

type ServiceOption func(s *Service)

// Service 是业务代码唯一需要接触的入口
// 负责校验, 格式化, 分发给对应的 builder, 审计以及错误翻译
type Service struct {
	db     *DB
	logger *slog.Logger

	builders map[Kind]queryBuilder

	columnCache cache.Cache
	ownCache    bool
	columnTTL   time.Duration
	columns     *cache.ReadThroughCache

	pageSize      int
	activityTable string
	seqTable      string
	auditCols     AuditColumns
	now           func() time.Time
}

func NewService(db *DB, opts ...ServiceOption) *Service {
	s := &Service{
		db:            db,
		logger:        db.logger.With(slog.String("component", "datasource")),
		pageSize:      DefaultPageSize,
		activityTable: DefaultActivityTable,
		seqTable:      DefaultSequenceTable,
		auditCols:     DefaultAuditColumns(),
		now:           time.Now,
		columnTTL:     10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.columnCache == nil {
		s.columnCache = cache.NewBuildInMapCache(time.Minute)
		s.ownCache = true
	}
	s.columns = cache.NewReadThroughCache(s.columnCache, s.loadColumns, s.columnTTL)
	// 查询的种类是封闭的, 每一种对应一个 builder
	s.builders = map[Kind]queryBuilder{
		KindSelect: newSelectBuilder(db.logger),
		KindInsert: newInsertBuilder(db.logger),
		KindUpdate: newUpdateBuilder(db.logger),
		KindDelete: newDeleteBuilder(db.logger),
	}
	return s
}

func WithDefaultPageSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithActivityTable(table string) ServiceOption {
	return func(s *Service) {
		s.activityTable = table
	}
}

func WithSequenceTable(table string) ServiceOption {
	return func(s *Service) {
		s.seqTable = table
	}
}

func WithAuditColumns(cols AuditColumns) ServiceOption {
	return func(s *Service) {
		s.auditCols = cols
	}
}

// WithColumnCache 表结构的缓存, 多个进程可以共用一个 redis
func WithColumnCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		s.columnCache = c
	}
}

// WithOwnedColumnCache 和 WithColumnCache 一样, 但是 Close 的时候会一起关闭缓存
func WithOwnedColumnCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		s.columnCache = c
		s.ownCache = true
	}
}

func WithColumnCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.columnTTL = ttl
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// CreateQuery 执行一条查询
func (s *Service) CreateQuery(ctx context.Context, q Query) (*ResultQuery, error) {
	res, err := s.run(ctx, s.db, q, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "执行查询失败", slog.String("kind", kindOf(q)), slog.Any("err", err))
		return nil, translateError(err)
	}
	return res, nil
}

// CreateListQuery 在同一个事务里面按顺序执行多条查询, 返回每一条的消息
// 所有查询先校验和格式化, 有一条不通过就不会开启事务
// 执行过程中任何一条失败都会整体回滚
func (s *Service) CreateListQuery(ctx context.Context, qs []Query) (msgs []string, err error) {
	logger := s.logger.With(slog.String("batch", uuid.NewString()))

	fs := make([]*formatted, 0, len(qs))
	for _, q := range qs {
		f, err := s.compile(ctx, s.db, q)
		if err != nil {
			logger.ErrorContext(ctx, "批量查询校验失败", slog.String("kind", kindOf(q)), slog.Any("err", err))
			return nil, translateError(err)
		}
		fs = append(fs, f)
	}

	// 整个事务独占一个连接, 无论结果如何最后都会归还
	tx, err := s.db.beginConnTx(ctx, nil)
	if err != nil {
		return nil, translateError(err)
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			logger.WarnContext(ctx, "归还连接失败", slog.Any("err", cerr))
		}
	}()

	panicked := true
	defer func() {
		if panicked || err != nil {
			rbErr := tx.Rollback()
			logger.ErrorContext(ctx, "批量查询回滚", slog.Any("err", err), slog.Bool("panicked", panicked))
			err = translateError(errs.NewErrFailedToRollbackTx(err, rbErr, panicked))
			msgs = nil
			return
		}
		if err = tx.Commit(); err != nil {
			err = translateError(err)
			msgs = nil
		}
	}()

	msgs = make([]string, 0, len(fs))
	for i, f := range fs {
		var res *ResultQuery
		res, err = s.execute(ctx, tx, f, false)
		if err != nil {
			logger.ErrorContext(ctx, "批量查询执行失败", slog.Int("index", i), slog.Any("err", err))
			break
		}
		msgs = append(msgs, res.Message)
	}
	panicked = false
	return msgs, err
}

// Close 释放 Service 自己创建的资源, 连接池由调用方关闭
func (s *Service) Close() error {
	if !s.ownCache {
		return nil
	}
	if c, ok := s.columnCache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// run 完整地执行一条查询
// suppressAudit 为 true 的时候不产生活动记录, 写活动记录本身就是这样调用的
func (s *Service) run(ctx context.Context, sess Session, q Query, suppressAudit bool) (*ResultQuery, error) {
	f, err := s.compile(ctx, sess, q)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, sess, f, suppressAudit)
}

// compile 准备, 校验, 格式化
// 校验失败的查询不会碰到数据库
func (s *Service) compile(ctx context.Context, sess Session, q Query) (*formatted, error) {
	if q == nil {
		return nil, errs.NewErrUnknownKind(nil)
	}
	q = prepare(q, s.pageSize)
	if err := q.validate(sess.getCore().dialect); err != nil {
		return nil, err
	}
	return s.format(withSession(ctx, sess), q)
}

func (s *Service) execute(ctx context.Context, sess Session, f *formatted, suppressAudit bool) (*ResultQuery, error) {
	b, ok := s.builders[f.query.Kind()]
	if !ok {
		return nil, errs.NewErrUnknownKind(f.query.Kind())
	}
	auditing := s.auditing(f.query, suppressAudit)
	var before []snapshot
	if auditing {
		before = s.auditBefore(ctx, sess, f)
	}
	res, err := b.build(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	if auditing {
		s.audit(ctx, sess, f, res, before)
	}
	return res, nil
}

func kindOf(q Query) string {
	if q == nil {
		return "nil"
	}
	return q.Kind().String()
}
