package database

import (
	"context"
	"fmt"

	"github.com/leapzhao/json-docstore/config"
	"github.com/leapzhao/json-docstore/pool"

	"github.com/rs/zerolog/log"
)

// CreateStore 工厂方法，根据配置创建连接池和对应的存储实例
func CreateStore(ctx context.Context, cfg config.Config, opts ...StoreOption) (*Store, error) {
	dbCfg := cfg.Database

	dialect, err := DialectFor(DatabaseType(dbCfg.Type))
	if err != nil {
		return nil, err
	}

	dsn, err := ConnectionTarget(cfg)
	if err != nil {
		return nil, err
	}

	p, err := pool.Open(ctx, pool.Options{
		Driver:         dialect.DriverName(),
		DSN:            dsn,
		MaxSize:        dbCfg.MaxPoolSize,
		MaxIdle:        dbCfg.MaxIdle,
		AcquireTimeout: dbCfg.AcquireTimeout,
		MaxLifetime:    dbCfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	store := NewStore(p, dialect, opts...)

	if dbCfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			p.Close()
			return nil, err
		}
	}

	log.Info().
		Str("database_type", dbCfg.Type).
		Int("max_pool_size", dbCfg.MaxPoolSize).
		Msg("Document store ready")

	return store, nil
}

// ConnectionTarget 优先使用完整 DSN，否则由分项配置拼接
func ConnectionTarget(cfg config.Config) (string, error) {
	dbCfg := cfg.Database
	if dbCfg.DSN != "" {
		return dbCfg.DSN, nil
	}

	switch DatabaseType(dbCfg.Type) {
	case Postgres:
		return PostgresDSN(dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.Name, dbCfg.SSLMode), nil
	case MySQL:
		return MySQLDSN(dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.Name), nil
	case SQLite:
		if dbCfg.Name == "" {
			return "", fmt.Errorf("%w: sqlite requires database.dsn or database.name", pool.ErrConfiguration)
		}
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbCfg.Name), nil
	default:
		return "", fmt.Errorf("%w: unsupported database type: %s", pool.ErrConfiguration, dbCfg.Type)
	}
}
