package pool

import (
	"context"
	"database/sql"
	"sync"

	"github.com/rs/zerolog/log"
)

// Lease 对单个连接的独占租约
type Lease struct {
	conn *sql.Conn
	once sync.Once
}

func (l *Lease) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return l.conn.ExecContext(ctx, query, args...)
}

func (l *Lease) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return l.conn.QueryRowContext(ctx, query, args...)
}

// Release 将连接归还连接池，可重复调用
func (l *Lease) Release() {
	l.once.Do(func() {
		if err := l.conn.Close(); err != nil {
			log.Debug().Err(err).Msg("Lease release after pool close")
		}
	})
}
