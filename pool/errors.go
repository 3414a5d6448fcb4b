package pool

import "errors"

// 连接池错误
var (
	ErrConfiguration = errors.New("pool configuration error")
	ErrPoolExhausted = errors.New("connection pool exhausted")
	ErrPoolClosed    = errors.New("connection pool closed")
	ErrConnect       = errors.New("failed to establish connection")
)
