package model

import (
	"encoding/json"
	"time"
)

// Document 持久化的 JSON 文档
type Document struct {
	InternalID  int64           `json:"internal_id"`
	ExternalID  string          `json:"external_id"`
	Payload     json.RawMessage `json:"payload"`
	ContentHash string          `json:"content_hash"`
}

// DocumentStoredEvent 文档写入成功后发布的事件
type DocumentStoredEvent struct {
	InternalID  int64     `json:"internal_id"`
	ExternalID  string    `json:"external_id"`
	ContentHash string    `json:"content_hash"`
	Size        int       `json:"size_bytes"`
	StoredAt    time.Time `json:"stored_at"`
	RequestID   string    `json:"request_id,omitempty"`
}

// NewStoredEvent 根据文档构造事件
func NewStoredEvent(doc *Document, requestID string) DocumentStoredEvent {
	return DocumentStoredEvent{
		InternalID:  doc.InternalID,
		ExternalID:  doc.ExternalID,
		ContentHash: doc.ContentHash,
		Size:        len(doc.Payload),
		StoredAt:    time.Now().UTC(),
		RequestID:   requestID,
	}
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type PoolMetrics struct {
	Driver          string        `json:"driver"`
	MaxSize         int           `json:"max_size"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	Available       int           `json:"available"`
	WaitCount       int64         `json:"wait_count"`
	WaitDuration    time.Duration `json:"wait_duration_ns"`
	Timestamp       time.Time     `json:"timestamp"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  bool      `json:"database"`
	Error     string    `json:"error,omitempty"`
	Version   string    `json:"version,omitempty"`
}

type VersionResponse struct {
	Version     string `json:"version"`
	BuildTime   string `json:"build_time,omitempty"`
	GitCommit   string `json:"git_commit,omitempty"`
	Environment string `json:"environment"`
	GoVersion   string `json:"go_version"`
}
