package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionCreated  Action = "created"
	ActionModified Action = "modified"
	ActionDeleted  Action = "deleted"
)

const DefaultActivityTable = "sis_actividad"

// Activity 对应活动表里面的一行
type Activity struct {
	Table    string
	RecordID string
	Action   Action
	At       time.Time
	User     string
	IP       string
	// Payload 插入的时候是新写入的值, 修改的时候是 []Change, 删除的时候为空
	Payload any
}

// Change 一个字段的变化
type Change struct {
	Field     string    `json:"field"`
	OldValue  any       `json:"oldValue"`
	NewValue  any       `json:"newValue"`
	ChangedAt time.Time `json:"changedAt"`
	Actor     string    `json:"actor"`
}

// Diff 比较修改前后的值, 只返回真正变化了的字段, 按字段名排序
// 只比较 after 里面出现的字段, exclude 里面的字段不参与比较
func Diff(before, after map[string]any, exclude ...string) []Change {
	skip := make(map[string]struct{}, len(exclude))
	for _, col := range exclude {
		skip[col] = struct{}{}
	}
	var res []Change
	for field, newVal := range after {
		if _, ok := skip[field]; ok {
			continue
		}
		oldVal, ok := before[field]
		if !ok {
			continue
		}
		if sameValue(oldVal, newVal) {
			continue
		}
		res = append(res, Change{Field: field, OldValue: oldVal, NewValue: newVal})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Field < res[j].Field
	})
	return res
}

// sameValue 数据库读出来的值和调用方给的值类型往往不同, 统一转成字符串比较
// 两边都是数字的时候按数值比较, 10.50 和 10.5 是一样的
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	sa, sb := normalize(a), normalize(b)
	if sa == sb {
		return true
	}
	da, errA := decimal.NewFromString(sa)
	db, errB := decimal.NewFromString(sb)
	return errA == nil && errB == nil && da.Equal(db)
}

func normalize(val any) string {
	switch v := val.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(val)
}

// snapshot 修改之前的一行数据
type snapshot struct {
	key    any
	values Row
}

func (s *Service) auditing(q Query, suppressAudit bool) bool {
	return !suppressAudit && q.base().Audit && q.Kind() != KindSelect
}

// auditBefore 修改和删除之前先把需要的数据读出来
// 出错只记录日志, 不影响业务
func (s *Service) auditBefore(ctx context.Context, sess Session, f *formatted) []snapshot {
	switch q := f.query.(type) {
	case *UpdateQuery:
		cols := make([]string, 0, len(f.auditValues))
		for _, col := range sortedKeys(f.auditValues) {
			if col != q.PrimaryKey && !s.isSystemColumn(col) {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			return nil
		}
		return s.readSnapshots(ctx, sess, q.QueryBase, q.Table, q.PrimaryKey, cols, q.Where, s.auditKey(q.Key, q.Values, q.PrimaryKey))
	case *DeleteQuery:
		if q.Key != nil {
			return []snapshot{{key: q.Key}}
		}
		return s.readSnapshots(ctx, sess, q.QueryBase, q.Table, q.PrimaryKey, nil, q.Where, nil)
	}
	return nil
}

func (s *Service) auditKey(key any, values map[string]any, pk string) any {
	if key != nil {
		return key
	}
	return values[pk]
}

// readSnapshots 优先按主键读, 没有主键就按 WHERE 条件读, 原生 SQL 模式没办法用 WHERE
func (s *Service) readSnapshots(ctx context.Context, sess Session, qb QueryBase, table, pk string, cols []string, where string, key any) []snapshot {
	d := sess.getCore().dialect
	var b *builder
	if key == nil && (qb.SQL != "" || where == "") {
		s.logger.WarnContext(ctx, "无法确定审计的记录", slog.String("table", table))
		return nil
	}
	if key == nil {
		b = newBuilder(d, qb.Params...)
	} else {
		b = newBuilder(d)
	}
	b.sb.WriteString("SELECT ")
	b.quote(pk)
	for _, col := range cols {
		b.sb.WriteByte(',')
		b.quote(col)
	}
	b.sb.WriteString(" FROM ")
	b.quoteTable(table)
	b.sb.WriteString(" WHERE ")
	if key != nil {
		b.quote(pk)
		b.sb.WriteString(" = ")
		b.param(key)
	} else {
		b.sb.WriteString(where)
	}
	stmt := b.statement()
	var rs *RowSet
	err := guarded(ctx, sess, func() error {
		var err error
		rs, err = query(ctx, sess, &QueryContext{Type: "SELECT", Table: table, Statement: &stmt})
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "读取审计快照失败", slog.String("table", table), slog.Any("err", err))
		return nil
	}
	res := make([]snapshot, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		res = append(res, snapshot{key: row[pk], values: row})
	}
	return res
}

// audit 生成活动记录, 任何错误都只记录日志
func (s *Service) audit(ctx context.Context, sess Session, f *formatted, res *ResultQuery, before []snapshot) {
	qb := f.query.base()
	now := s.now()
	var acts []Activity
	newActivity := func(table string, key any, action Action, payload any) Activity {
		return Activity{
			Table:    table,
			RecordID: fmt.Sprint(key),
			Action:   action,
			At:       now,
			User:     qb.Header.User,
			IP:       qb.Header.IP,
			Payload:  payload,
		}
	}
	switch q := f.query.(type) {
	case *InsertQuery:
		if len(res.Rows) > 0 {
			for _, row := range res.Rows {
				key := row[q.PrimaryKey]
				if key == nil {
					key = q.Values[q.PrimaryKey]
				}
				acts = append(acts, newActivity(q.Table, key, ActionCreated, f.auditValues))
			}
			break
		}
		if res.RowCount == 0 {
			return
		}
		var key any = q.Values[q.PrimaryKey]
		if key == nil && res.LastInsertID != 0 {
			key = res.LastInsertID
		}
		acts = append(acts, newActivity(q.Table, key, ActionCreated, f.auditValues))
	case *UpdateQuery:
		// 快照是按主键读的, 真正的 WHERE 可能一条都没改到
		if res.RowCount == 0 {
			return
		}
		for _, snap := range before {
			changes := Diff(snap.values, f.auditValues, append(s.auditCols.all(), q.PrimaryKey)...)
			if len(changes) == 0 {
				continue
			}
			for i := range changes {
				changes[i].ChangedAt = now
				changes[i].Actor = qb.Header.User
			}
			acts = append(acts, newActivity(q.Table, snap.key, ActionModified, changes))
		}
	case *DeleteQuery:
		if res.RowCount == 0 {
			return
		}
		for _, snap := range before {
			acts = append(acts, newActivity(q.Table, snap.key, ActionDeleted, nil))
		}
	}
	for _, act := range acts {
		if err := s.writeActivity(ctx, sess, act); err != nil {
			s.logger.ErrorContext(ctx, "写入活动记录失败",
				slog.String("table", act.Table),
				slog.String("record", act.RecordID),
				slog.Any("err", err))
		}
	}
}

func (s *Service) isSystemColumn(col string) bool {
	for _, c := range s.auditCols.all() {
		if c == col {
			return true
		}
	}
	return false
}

// writeActivity 活动记录本身不再审计
func (s *Service) writeActivity(ctx context.Context, sess Session, act Activity) error {
	values := map[string]any{
		"tabla":       act.Table,
		"registro_id": act.RecordID,
		"accion":      string(act.Action),
		"fecha":       act.At,
		"usuario":     act.User,
		"ip":          act.IP,
	}
	if act.Payload != nil {
		data, err := json.Marshal(act.Payload)
		if err != nil {
			return err
		}
		values["cambios"] = string(data)
	}
	q := NewInsert(s.activityTable, "id", values)
	q.Header = Header{User: act.User, IP: act.IP}
	return guarded(ctx, sess, func() error {
		_, err := s.run(ctx, sess, q, true)
		return err
	})
}

// guarded 在事务里面用保存点把 fn 包起来
// fn 失败之后回滚到保存点, 外层事务还可以继续使用
func guarded(ctx context.Context, sess Session, fn func() error) error {
	tx, ok := sess.(*Tx)
	if !ok {
		return fn()
	}
	sp := "audit_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := tx.savepoint(ctx, sp); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := tx.rollbackTo(ctx, sp); rbErr != nil {
			return fmt.Errorf("%w, 回滚保存点失败: %s", err, rbErr.Error())
		}
		return err
	}
	return tx.release(ctx, sp)
}
