//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/startdusk/erp-datasource/datasource"
)

// Suite 每种数据库一个实例, 需要先启动对应的容器
type Suite struct {
	suite.Suite

	driver string
	dsn    string
	schema []string
	// truncate 每个用例结束之后清空数据
	truncate []string

	raw *sql.DB
	db  *datasource.DB
	svc *datasource.Service
}

func (s *Suite) SetupSuite() {
	t := s.T()
	raw, err := sql.Open(s.driver, s.dsn)
	require.NoError(t, err)
	// SET FOREIGN_KEY_CHECKS 只对当前连接生效
	raw.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, raw.PingContext(ctx))
	for _, stmt := range s.schema {
		_, err = raw.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	s.raw = raw

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.db, err = datasource.Open(s.driver, s.dsn, datasource.DBWithLogger(logger))
	require.NoError(t, err)
	s.svc = datasource.NewService(s.db)
}

func (s *Suite) TearDownTest() {
	for _, stmt := range s.truncate {
		_, err := s.raw.Exec(stmt)
		require.NoError(s.T(), err, stmt)
	}
}

func (s *Suite) TearDownSuite() {
	_ = s.svc.Close()
	_ = s.db.Close()
	_ = s.raw.Close()
}

// ph 第 n 个占位符
func (s *Suite) ph(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *Suite) count(table string) int {
	var n int
	require.NoError(s.T(), s.raw.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

var postgresSchema = []string{
	`DROP TABLE IF EXISTS detalle, producto, sis_actividad, sis_secuencia`,
	`CREATE TABLE producto (
		id SERIAL PRIMARY KEY,
		nombre VARCHAR(64) NOT NULL UNIQUE,
		precio NUMERIC(12,2),
		created_at TIMESTAMP,
		created_by VARCHAR(64),
		updated_at TIMESTAMP,
		updated_by VARCHAR(64)
	)`,
	`CREATE TABLE detalle (
		id SERIAL PRIMARY KEY,
		producto_id INT NOT NULL REFERENCES producto(id),
		cantidad INT
	)`,
	`CREATE TABLE sis_actividad (
		id SERIAL PRIMARY KEY,
		tabla VARCHAR(64) NOT NULL,
		registro_id VARCHAR(64),
		accion VARCHAR(16) NOT NULL,
		fecha TIMESTAMP,
		usuario VARCHAR(64),
		ip VARCHAR(64),
		cambios TEXT
	)`,
	`CREATE TABLE sis_secuencia (
		tabla VARCHAR(64) PRIMARY KEY,
		valor BIGINT NOT NULL,
		usuario VARCHAR(64),
		fecha TIMESTAMP
	)`,
}

var postgresTruncate = []string{
	`TRUNCATE TABLE detalle, producto, sis_actividad, sis_secuencia RESTART IDENTITY CASCADE`,
}

var mysqlSchema = []string{
	"SET FOREIGN_KEY_CHECKS = 0",
	"DROP TABLE IF EXISTS `detalle`, `producto`, `sis_actividad`, `sis_secuencia`",
	"SET FOREIGN_KEY_CHECKS = 1",
	"CREATE TABLE `producto` (" +
		"`id` INT AUTO_INCREMENT PRIMARY KEY," +
		"`nombre` VARCHAR(64) NOT NULL UNIQUE," +
		"`precio` DECIMAL(12,2)," +
		"`created_at` DATETIME," +
		"`created_by` VARCHAR(64)," +
		"`updated_at` DATETIME," +
		"`updated_by` VARCHAR(64)" +
		") ENGINE=InnoDB",
	"CREATE TABLE `detalle` (" +
		"`id` INT AUTO_INCREMENT PRIMARY KEY," +
		"`producto_id` INT NOT NULL," +
		"`cantidad` INT," +
		"FOREIGN KEY (`producto_id`) REFERENCES `producto`(`id`)" +
		") ENGINE=InnoDB",
	"CREATE TABLE `sis_actividad` (" +
		"`id` INT AUTO_INCREMENT PRIMARY KEY," +
		"`tabla` VARCHAR(64) NOT NULL," +
		"`registro_id` VARCHAR(64)," +
		"`accion` VARCHAR(16) NOT NULL," +
		"`fecha` DATETIME," +
		"`usuario` VARCHAR(64)," +
		"`ip` VARCHAR(64)," +
		"`cambios` TEXT" +
		") ENGINE=InnoDB",
	"CREATE TABLE `sis_secuencia` (" +
		"`tabla` VARCHAR(64) PRIMARY KEY," +
		"`valor` BIGINT NOT NULL," +
		"`usuario` VARCHAR(64)," +
		"`fecha` DATETIME" +
		") ENGINE=InnoDB",
}

var mysqlTruncate = []string{
	"SET FOREIGN_KEY_CHECKS = 0",
	"TRUNCATE TABLE `detalle`",
	"TRUNCATE TABLE `producto`",
	"TRUNCATE TABLE `sis_actividad`",
	"TRUNCATE TABLE `sis_secuencia`",
	"SET FOREIGN_KEY_CHECKS = 1",
}
