package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/leapzhao/json-docstore/model"
	"github.com/leapzhao/json-docstore/pool"
)

// Querier 插入与回读所需的最小连接接口，*pool.Lease 和 *sql.Conn 均满足
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DocumentStore 存储接口定义
type DocumentStore interface {
	// Insert 租用连接并写入文档，返回回读的文档
	Insert(ctx context.Context, payload json.RawMessage) (*model.Document, error)

	// InsertWith 在调用方提供的连接上写入文档
	InsertWith(ctx context.Context, conn Querier, payload json.RawMessage) (*model.Document, error)

	// Stats 连接池统计
	Stats() pool.Stats

	// Driver 后端驱动名
	Driver() string

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error

	// Migrate 数据库迁移
	Migrate(ctx context.Context) error

	// Close 关闭数据库连接
	Close() error
}
