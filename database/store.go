package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapzhao/json-docstore/model"
	"github.com/leapzhao/json-docstore/pool"
	"github.com/leapzhao/json-docstore/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// IDGenerator 生成文档外部ID
type IDGenerator func() (string, error)

// NewRandomID 基于 crypto/rand 的 UUIDv4
func NewRandomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Store struct {
	pool    *pool.Pool
	dialect Dialect
	newID   IDGenerator
}

// StoreOption 存储选项
type StoreOption func(*Store)

// WithIDGenerator 替换外部ID生成器
func WithIDGenerator(gen IDGenerator) StoreOption {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore 基于已建立的连接池创建文档存储
func NewStore(p *pool.Pool, dialect Dialect, opts ...StoreOption) *Store {
	s := &Store{
		pool:    p,
		dialect: dialect,
		newID:   NewRandomID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate 创建文档表
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// Insert 租用连接写入文档，连接在任何路径上都会归还
func (s *Store) Insert(ctx context.Context, payload json.RawMessage) (*model.Document, error) {
	var doc *model.Document
	err := s.pool.With(ctx, func(lease *pool.Lease) error {
		var err error
		doc, err = s.InsertWith(ctx, lease, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// InsertWith 在给定连接上写入一行并按外部ID回读
func (s *Store) InsertWith(ctx context.Context, conn Querier, payload json.RawMessage) (*model.Document, error) {
	normalized, err := utils.NormalizeJSON(payload)
	if err != nil {
		return nil, newStoreError("insert", ErrInvalidPayload, "", err)
	}
	hash := utils.CalculateHash(normalized)

	externalID, err := s.newID()
	if err != nil {
		return nil, newStoreError("insert", ErrWrite, "", fmt.Errorf("generate external id: %w", err))
	}

	result, err := conn.ExecContext(ctx, s.dialect.InsertSQL(), externalID, string(normalized), hash)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			log.Error().Err(err).Str("external_id", externalID).Msg("External id collision")
			return nil, newStoreError("insert", ErrIDCollision, externalID, err)
		}
		return nil, newStoreError("insert", ErrWrite, externalID, err)
	}
	if n, err := result.RowsAffected(); err != nil || n != 1 {
		return nil, newStoreError("insert", ErrWrite, externalID,
			fmt.Errorf("expected 1 row affected, got %d: %v", n, err))
	}

	doc, err := s.reload(ctx, conn, externalID, hash)
	if err != nil {
		log.Error().
			Err(err).
			Str("external_id", externalID).
			Str("driver", s.dialect.DriverName()).
			Msg("Document committed but read-back failed")
		return nil, err
	}

	log.Info().
		Int64("internal_id", doc.InternalID).
		Str("external_id", doc.ExternalID).
		Str("size", utils.FormatBytes(int64(len(normalized)))).
		Msg("Document stored")

	return doc, nil
}

func (s *Store) reload(ctx context.Context, conn Querier, externalID, hash string) (*model.Document, error) {
	var (
		doc     model.Document
		payload string
	)
	err := conn.QueryRowContext(ctx, s.dialect.SelectByExternalIDSQL(), externalID).Scan(
		&doc.InternalID, &doc.ExternalID, &payload, &doc.ContentHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newStoreError("reload", ErrReadBack, externalID, errors.New("row not found after insert"))
		}
		return nil, newStoreError("reload", ErrReadBack, externalID, err)
	}

	if doc.ExternalID != externalID || doc.ContentHash != hash || utils.CalculateHash([]byte(payload)) != hash {
		return nil, newStoreError("reload", ErrReadBack, externalID, errors.New("row read back does not match row written"))
	}

	doc.Payload = json.RawMessage(payload)
	return &doc, nil
}

func (s *Store) Stats() pool.Stats {
	return s.pool.Stats()
}

func (s *Store) Driver() string {
	return s.dialect.DriverName()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	return s.pool.Close()
}
var _ DocumentStore = (*Store)(nil)
