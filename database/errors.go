package database

import (
	"errors"
	"fmt"
)

// 文档存储错误
var (
	ErrInvalidPayload = errors.New("invalid JSON payload")
	ErrWrite          = errors.New("document write failed")
	ErrIDCollision    = errors.New("external id collision")
	ErrReadBack       = errors.New("document read-back failed")
)

// StoreError 文档存储操作错误
type StoreError struct {
	Op         string
	Kind       error
	ExternalID string
	Err        error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.ExternalID != "" {
		msg += fmt.Sprintf(" (external_id=%s)", e.ExternalID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is 让 ID 冲突同时匹配 ErrWrite
func (e *StoreError) Is(target error) bool {
	return e.Kind == ErrIDCollision && target == ErrWrite
}

func newStoreError(op string, kind error, externalID string, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, ExternalID: externalID, Err: err}
}
