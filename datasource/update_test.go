package datasource

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestUpdateBuilder_statement(t *testing.T) {
	cases := []struct {
		name    string
		dialect Dialect
		f       *formatted
		want    Statement
	}{
		{
			// SET 的占位符接在 WHERE 的后面
			name:    "postgres",
			dialect: DialectPostgreSQL,
			f: &formatted{
				query:  NewUpdate("producto", "id", map[string]any{"nombre": "B"}, "id = $1 AND empresa = $2", 7, 1),
				values: map[string]any{"nombre": "B", "precio": 10},
				cols:   []string{"nombre", "precio"},
			},
			want: Statement{
				SQL:  `UPDATE "producto" SET "nombre"=$3,"precio"=$4 WHERE id = $1 AND empresa = $2;`,
				Args: []any{7, 1, "B", 10},
			},
		},
		{
			name:    "mysql",
			dialect: DialectMySQL,
			f: &formatted{
				query:  NewUpdate("producto", "id", map[string]any{"nombre": "B"}, "id = ? AND empresa = ?", 7, 1),
				values: map[string]any{"nombre": "B", "precio": 10},
				cols:   []string{"nombre", "precio"},
			},
			want: Statement{
				SQL:  "UPDATE `producto` SET `nombre`=?,`precio`=? WHERE id = ? AND empresa = ?;",
				Args: []any{"B", 10, 7, 1},
			},
		},
		{
			name:    "raw",
			dialect: DialectPostgreSQL,
			f: &formatted{
				query: &UpdateQuery{
					QueryBase: QueryBase{SQL: "UPDATE producto SET stock = stock - $1 WHERE id = $2", Params: []any{2, 7}},
					Table:     "producto",
					Values:    map[string]any{"stock": 2},
					Where:     "id = $2",
				},
			},
			want: Statement{
				SQL:  "UPDATE producto SET stock = stock - $1 WHERE id = $2",
				Args: []any{2, 7},
			},
		},
	}
	b := newUpdateBuilder(testLogger())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, b.statement(c.dialect, c.f))
		})
	}
}

func TestService_Update(t *testing.T) {
	cases := []struct {
		name    string
		dialect Dialect
		q       *UpdateQuery
		expect  func(mock sqlmock.Sqlmock)

		wantRes *ResultQuery
		wantErr error
	}{
		{
			name:    "postgres",
			dialect: DialectPostgreSQL,
			q: func() *UpdateQuery {
				q := NewUpdate("producto", "id", map[string]any{
					"nombre": "B",
					"precio": 10,
					// 修改的时候不能改创建人
					"created_by": "pepe",
				}, "id = $1", 1)
				q.Header = Header{User: "ana"}
				return q
			}(),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(pgColumnsSQL).WithArgs("producto").WillReturnRows(productoColumns())
				mock.ExpectExec(`UPDATE "producto" SET "nombre"=$2,"precio"=$3,"updated_at"=$4,"updated_by"=$5 WHERE id = $1;`).
					WithArgs(1, "B", 10, testNow, "ana").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantRes: &ResultQuery{
				RowCount: 1,
				Rows:     []Row{},
				Message:  "Se actualizó 1 registro correctamente",
			},
		},
		{
			name:    "mysql",
			dialect: DialectMySQL,
			q: func() *UpdateQuery {
				q := NewUpdate("producto", "id", map[string]any{"precio": 10}, "empresa = ?", 3)
				q.Header = Header{User: "ana"}
				return q
			}(),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(mysqlColumnsSQL).WithArgs("producto").WillReturnRows(productoColumns())
				mock.ExpectExec("UPDATE `producto` SET `precio`=?,`updated_at`=?,`updated_by`=? WHERE empresa = ?;").
					WithArgs(10, testNow, "ana", 3).
					WillReturnResult(sqlmock.NewResult(0, 3))
			},
			wantRes: &ResultQuery{
				RowCount: 3,
				Rows:     []Row{},
				Message:  "Se actualizaron 3 registros correctamente",
			},
		},
		{
			name:    "nothing updated",
			dialect: DialectPostgreSQL,
			q:       NewUpdate("producto", "id", map[string]any{"nombre": "B"}, "id = $1", 404),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(pgColumnsSQL).WithArgs("producto").WillReturnRows(productoColumns())
				mock.ExpectExec(`UPDATE "producto" SET "nombre"=$2,"updated_at"=$3 WHERE id = $1;`).
					WithArgs(404, "B", testNow).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantRes: &ResultQuery{
				Rows:    []Row{},
				Message: "No se actualizó ningún registro",
			},
		},
		{
			name:    "raw returning",
			dialect: DialectPostgreSQL,
			q: &UpdateQuery{
				QueryBase: QueryBase{SQL: "UPDATE producto SET stock = stock - $1 WHERE id = $2 RETURNING id, stock", Params: []any{2, 7}},
				Table:     "producto",
				Values:    map[string]any{"stock": 2},
				Where:     "id = $2",
			},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("UPDATE producto SET stock = stock - $1 WHERE id = $2 RETURNING id, stock").
					WithArgs(2, 7).
					WillReturnRows(sqlmock.NewRows([]string{"id", "stock"}).AddRow(7, 8))
			},
			wantRes: &ResultQuery{
				RowCount: 1,
				Rows:     []Row{{"id": 7, "stock": 8}},
				Message:  "Se actualizó 1 registro correctamente",
			},
		},
		{
			name:    "only unknown columns",
			dialect: DialectPostgreSQL,
			q:       NewUpdate("producto", "id", map[string]any{"color": "rojo"}, "id = $1", 1),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(pgColumnsSQL).WithArgs("producto").WillReturnRows(productoColumns())
			},
			wantErr: ErrInvalidQuery,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, mock := newMockService(t, c.dialect)
			c.expect(mock)
			res, err := svc.CreateQuery(context.Background(), c.q)
			assert.ErrorIs(t, err, c.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
			if err != nil {
				return
			}
			assert.Equal(t, c.wantRes, res)
		})
	}
}
