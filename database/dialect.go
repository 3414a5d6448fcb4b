package database

import (
	"fmt"

	"github.com/leapzhao/json-docstore/pool"
)

// DatabaseType 数据库类型
type DatabaseType string

const (
	Postgres DatabaseType = "postgres"
	MySQL    DatabaseType = "mysql"
	SQLite   DatabaseType = "sqlite"
)

// Dialect 各后端的 SQL 差异
type Dialect interface {
	// DriverName database/sql 注册的驱动名
	DriverName() string

	// Schema 建表语句，可重复执行
	Schema() []string

	// InsertSQL 参数顺序: external_id, payload, content_hash
	InsertSQL() string

	// SelectByExternalIDSQL 返回 internal_id, external_id, payload, content_hash
	SelectByExternalIDSQL() string

	// IsUniqueViolation 判断错误是否为唯一约束冲突
	IsUniqueViolation(err error) bool
}

// DialectFor 根据数据库类型返回方言
func DialectFor(t DatabaseType) (Dialect, error) {
	switch t {
	case Postgres:
		return postgresDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database type: %s", pool.ErrConfiguration, t)
	}
}
