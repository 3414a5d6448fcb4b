package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxSize        = 10
	DefaultAcquireTimeout = 30 * time.Second
	DefaultMaxLifetime    = 5 * time.Minute
)

// Options 连接池参数
type Options struct {
	Driver         string
	DSN            string
	MaxSize        int
	MaxIdle        int
	AcquireTimeout time.Duration
	MaxLifetime    time.Duration
}

// Stats 连接池统计
type Stats struct {
	MaxSize      int           `json:"max_size"`
	Open         int           `json:"open"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	Available    int           `json:"available"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration_ns"`
}

// Pool 有界连接池，构造一次后显式传递给所有使用方
type Pool struct {
	db             *sql.DB
	driver         string
	maxSize        int
	acquireTimeout time.Duration
	closed         atomic.Bool
}

// Open 创建连接池并验证连接目标可达
func Open(ctx context.Context, opts Options) (*Pool, error) {
	if opts.Driver == "" || !slices.Contains(sql.Drivers(), opts.Driver) {
		return nil, fmt.Errorf("%w: unknown driver %q", ErrConfiguration, opts.Driver)
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%w: empty connection target", ErrConfiguration)
	}
	if opts.MaxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be at least 1, got %d", ErrConfiguration, opts.MaxSize)
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}
	if opts.MaxLifetime <= 0 {
		opts.MaxLifetime = DefaultMaxLifetime
	}
	if opts.MaxIdle <= 0 || opts.MaxIdle > opts.MaxSize {
		opts.MaxIdle = opts.MaxSize
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	db.SetMaxOpenConns(opts.MaxSize)
	db.SetMaxIdleConns(opts.MaxIdle)
	db.SetConnMaxLifetime(opts.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.AcquireTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping %s: %v", ErrConfiguration, opts.Driver, err)
	}

	log.Info().
		Str("driver", opts.Driver).
		Int("max_size", opts.MaxSize).
		Dur("acquire_timeout", opts.AcquireTimeout).
		Msg("Connection pool established")

	return &Pool{
		db:             db,
		driver:         opts.Driver,
		maxSize:        opts.MaxSize,
		acquireTimeout: opts.AcquireTimeout,
	}, nil
}

// Acquire 租用一个连接，最多等待 acquireTimeout
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(waitCtx)
	if err != nil {
		switch {
		case p.closed.Load():
			return nil, ErrPoolClosed
		case ctx.Err() != nil:
			return nil, fmt.Errorf("acquire aborted: %w", ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: no connection free after %s", ErrPoolExhausted, p.acquireTimeout)
		default:
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
	}

	return &Lease{conn: conn}, nil
}

// With 在租约作用域内执行 fn，任何退出路径都会归还连接
func (p *Pool) With(ctx context.Context, fn func(*Lease) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(lease)
}

// Stats 返回连接池当前统计
func (p *Pool) Stats() Stats {
	s := p.db.Stats()
	return Stats{
		MaxSize:      p.maxSize,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		Available:    p.maxSize - s.InUse,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

// Ping 检查后端可达
func (p *Pool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	return p.db.PingContext(ctx)
}

// DB 返回底层 *sql.DB，仅供迁移使用
func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Driver() string {
	return p.driver
}

// Close 关闭连接池，等待中的 Acquire 返回 ErrPoolClosed
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.Info().Str("driver", p.driver).Msg("Closing connection pool")
	return p.db.Close()
}
