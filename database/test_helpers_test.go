package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapzhao/json-docstore/pool"

	"github.com/stretchr/testify/require"
)

// createTestStore 基于临时 SQLite 文件创建已迁移的文档存储
func createTestStore(t *testing.T, size int, opts ...StoreOption) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "docs.db"))

	p, err := pool.Open(context.Background(), pool.Options{
		Driver:         "sqlite",
		DSN:            dsn,
		MaxSize:        size,
		AcquireTimeout: 2 * time.Second,
	})
	require.NoError(t, err)

	s := NewStore(p, sqliteDialect{}, opts...)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func countRows(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.pool.DB().QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n))
	return n
}

// redirectQuerier 把回读查询指向另一个外部ID，模拟读写路径不一致
type redirectQuerier struct {
	Querier
	target string
}

func (q redirectQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return q.Querier.QueryRowContext(ctx, query, q.target)
}

// failingExec 插入永远失败
type failingExec struct {
	Querier
	err error
}

func (q failingExec) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, q.err
}

// zeroRowsExec 插入成功但没有影响任何行
type zeroRowsExec struct {
	Querier
}

func (zeroRowsExec) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return driverResult(0), nil
}

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }
