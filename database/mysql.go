package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			internal_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			external_id VARCHAR(36) NOT NULL,
			payload LONGTEXT NOT NULL,
			content_hash VARCHAR(64) NOT NULL,
			UNIQUE KEY uk_documents_external_id (external_id),
			INDEX idx_documents_content_hash (content_hash)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}
}

func (mysqlDialect) InsertSQL() string {
	return `INSERT INTO documents (external_id, payload, content_hash) VALUES (?, ?, ?)`
}

func (mysqlDialect) SelectByExternalIDSQL() string {
	return `SELECT internal_id, external_id, payload, content_hash FROM documents WHERE external_id = ?`
}

func (mysqlDialect) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// MySQLDSN 由分项配置拼接连接串
func MySQLDSN(host string, port int, user, password, dbname string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = dbname
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}
