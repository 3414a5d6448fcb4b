package database

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			internal_id BIGSERIAL PRIMARY KEY,
			external_id VARCHAR(36) NOT NULL UNIQUE,
			payload TEXT NOT NULL,
			content_hash VARCHAR(64) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash)`,
	}
}

func (postgresDialect) InsertSQL() string {
	return `INSERT INTO documents (external_id, payload, content_hash) VALUES ($1, $2, $3)`
}

func (postgresDialect) SelectByExternalIDSQL() string {
	return `SELECT internal_id, external_id, payload, content_hash FROM documents WHERE external_id = $1`
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// PostgresDSN 由分项配置拼接连接串
func PostgresDSN(host string, port int, user, password, dbname, sslmode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + dbname,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	return u.String()
}
