package database

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			internal_id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL UNIQUE,
			payload TEXT NOT NULL,
			content_hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash)`,
	}
}

func (sqliteDialect) InsertSQL() string {
	return `INSERT INTO documents (external_id, payload, content_hash) VALUES (?, ?, ?)`
}

func (sqliteDialect) SelectByExternalIDSQL() string {
	return `SELECT internal_id, external_id, payload, content_hash FROM documents WHERE external_id = ?`
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch code := liteErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// 未开启扩展错误码时只能看消息
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}
