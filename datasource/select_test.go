package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/erp-datasource/datasource/typeparser"
)

func TestService_Select(t *testing.T) {
	const (
		countSQL    = "SELECT COUNT(*) FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query"
		filteredSQL = "SELECT COUNT(*) FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query WHERE (wrapped_query.estado = $2)"
	)
	count := func(n int) *int64 {
		v := int64(n)
		return &v
	}
	cases := []struct {
		name   string
		q      *SelectQuery
		expect func(mock sqlmock.Sqlmock)

		wantRes *ResultQuery
		wantErr error
	}{
		{
			name: "plain",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "estado"}).AddRow(1, "5").AddRow(2, "6"))
			},
			wantRes: &ResultQuery{
				RowCount: 2,
				Rows:     []Row{{"id": 1, "estado": "5"}, {"id": 2, "estado": "6"}},
				Message:  "ok",
			},
		},
		{
			name: "no rows",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "estado"}))
			},
			wantRes: &ResultQuery{
				Rows:    []Row{},
				Message: "no records",
			},
		},
		{
			name: "filters ignored when not lazy",
			q: &SelectQuery{
				QueryBase: QueryBase{SQL: "SELECT * FROM pedido WHERE empresa = $1", Params: []any{1}},
				Filters:   []Filter{{Column: "estado", Operator: OpEq, Value: "5"}},
			},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			},
			wantRes: &ResultQuery{
				RowCount: 1,
				Rows:     []Row{{"id": 1}},
				Message:  "ok",
			},
		},
		{
			name: "paginated and filtered",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1).Paginate(20, 4).Filter("estado", OpEq, "5"),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countSQL).WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
				mock.ExpectQuery(filteredSQL).WithArgs(1, "5").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(97))
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query WHERE (wrapped_query.estado = $2) LIMIT 20 OFFSET 80").
					WithArgs(1, "5").
					WillReturnRows(sqlmock.NewRows([]string{"id", "estado"}).AddRow(81, "5"))
			},
			wantRes: &ResultQuery{
				RowCount:        1,
				TotalRecords:    count(120),
				FilteredRecords: count(97),
				Rows:            []Row{{"id": 81, "estado": "5"}},
				Pagination: &Pagination{
					PageSize:    20,
					PageIndex:   4,
					Offset:      80,
					TotalPages:  5,
					HasPrevious: true,
				},
				Message: "ok",
			},
		},
		{
			name: "jump to last page",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1).Paginate(20, 0).LastPage().Filter("estado", OpEq, "5"),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countSQL).WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
				mock.ExpectQuery(filteredSQL).WithArgs(1, "5").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow([]byte("97")))
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query WHERE (wrapped_query.estado = $2) LIMIT 20 OFFSET 80").
					WithArgs(1, "5").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(97))
			},
			wantRes: &ResultQuery{
				RowCount:        1,
				TotalRecords:    count(120),
				FilteredRecords: count(97),
				Rows:            []Row{{"id": 97}},
				Pagination: &Pagination{
					PageSize:    20,
					PageIndex:   4,
					Offset:      80,
					TotalPages:  5,
					HasPrevious: true,
				},
				Message: "ok",
			},
		},
		{
			name: "lazy without filters counts once",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1).Paginate(20, 0),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countSQL).WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query LIMIT 20 OFFSET 0").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
			},
			wantRes: &ResultQuery{
				RowCount:     3,
				TotalRecords: count(3),
				Rows:         []Row{{"id": 1}, {"id": 2}, {"id": 3}},
				Pagination: &Pagination{
					PageSize:   20,
					TotalPages: 1,
				},
				Message: "ok",
			},
		},
		{
			name: "lazy with default page size",
			q: &SelectQuery{
				QueryBase:    QueryBase{SQL: "SELECT * FROM pedido WHERE empresa = $1", Params: []any{1}},
				Lazy:         true,
				GlobalFilter: &GlobalFilter{Columns: []string{"cliente"}, Value: "ana"},
			},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countSQL).WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query WHERE (wrapped_query.cliente::text ILIKE $2)").
					WithArgs(1, "%ana%").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido WHERE empresa = $1) AS wrapped_query WHERE (wrapped_query.cliente::text ILIKE $2) LIMIT 10 OFFSET 0").
					WithArgs(1, "%ana%").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantRes: &ResultQuery{
				TotalRecords:    count(0),
				FilteredRecords: count(0),
				Rows:            []Row{},
				Pagination:      &Pagination{PageSize: 10},
				Message:         "no records",
			},
		},
		{
			name: "count error",
			q:    NewSelect("SELECT * FROM pedido WHERE empresa = $1", 1).Paginate(20, 0),
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countSQL).WithArgs(1).WillReturnError(errors.New("conexión perdida"))
			},
			wantErr: ErrDatabase,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, mock := newMockService(t, DialectPostgreSQL)
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

func TestService_Select_DoesNotMutateCaller(t *testing.T) {
	svc, mock := newMockService(t, DialectPostgreSQL)
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT * FROM pedido) AS wrapped_query").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectQuery("SELECT * FROM (SELECT * FROM pedido) AS wrapped_query LIMIT 20 OFFSET 40").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))

	q := NewSelect("SELECT * FROM pedido").Paginate(20, 0).LastPage()
	res, err := svc.CreateQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.PageIndex)
	assert.Equal(t, &Pagination{PageSize: 20}, q.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Select_Schema(t *testing.T) {
	svc, mock := newMockService(t, DialectPostgreSQL)
	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("id").OfType("INT4", int64(0)).Nullable(false),
		mock.NewColumn("nombre").OfType("VARCHAR", "").Nullable(true),
		mock.NewColumn("precio").OfType("NUMERIC", "").Nullable(true),
		mock.NewColumn("activo").OfType("BOOL", false).Nullable(false),
	).AddRow(int64(1), "Tornillo", []byte("10.50"), true)
	mock.ExpectQuery("SELECT * FROM (SELECT id, nombre, precio, activo FROM producto) AS wrapped_query").
		WillReturnRows(rows)

	res, err := svc.CreateQuery(context.Background(), NewSelect("SELECT id, nombre, precio, activo FROM producto").WithSchema())
	require.NoError(t, err)
	assert.Equal(t, []Row{{
		"id":     int64(1),
		"nombre": "Tornillo",
		"precio": decimal.RequireFromString("10.50"),
		"activo": true,
	}}, res.Rows)
	assert.Equal(t, []ColumnMeta{
		{Name: "id", DBType: "INT4", Type: typeparser.FamilyInteger, Align: "right", Default: 0, Component: "number"},
		{Name: "nombre", DBType: "VARCHAR", Type: typeparser.FamilyText, Align: "left", Default: "", Component: "text", Nullable: true, Visible: true},
		{Name: "precio", DBType: "NUMERIC", Type: typeparser.FamilyNumeric, Align: "right", Default: 0, Component: "number", Nullable: true, Visible: true},
		{Name: "activo", DBType: "BOOL", Type: typeparser.FamilyBoolean, Align: "center", Default: false, Component: "checkbox", Visible: true},
	}, res.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_toInt64(t *testing.T) {
	cases := []struct {
		name    string
		val     any
		want    int64
		wantErr bool
	}{
		{name: "nil", val: nil, want: 0},
		{name: "int64", val: int64(7), want: 7},
		{name: "int", val: 7, want: 7},
		{name: "int32", val: int32(7), want: 7},
		{name: "uint64", val: uint64(7), want: 7},
		{name: "float64", val: float64(7), want: 7},
		{name: "decimal", val: decimal.NewFromInt(7), want: 7},
		{name: "bytes", val: []byte("7"), want: 7},
		{name: "string", val: "7", want: 7},
		{name: "bad string", val: "siete", wantErr: true},
		{name: "bool", val: true, wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := toInt64(c.val)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}
