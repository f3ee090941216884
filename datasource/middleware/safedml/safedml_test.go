package safedml

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/erp-datasource/datasource"
)

func TestSafeDML(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()
	svc := datasource.NewService(datasource.MustOpenDB(mockDB, datasource.DBWithMiddlewares(NewMiddlewareBuilder().Build())))
	defer svc.Close()

	// 原生 SQL 没有 WHERE, 被拦截, 不会发到数据库
	q := datasource.NewDelete("producto", "id", "1 = 1")
	q.SQL = "DELETE FROM producto"
	_, err = svc.CreateQuery(context.Background(), q)
	assert.ErrorIs(t, err, ErrMissingWhere)
	assert.ErrorIs(t, err, datasource.ErrInvalidQuery)

	mock.ExpectExec(`DELETE FROM "producto" WHERE id = $1;`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	res, err := svc.CreateQuery(context.Background(), datasource.NewDelete("producto", "id", "id = $1", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
