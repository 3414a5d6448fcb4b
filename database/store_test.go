package database

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/leapzhao/json-docstore/model"
	"github.com/leapzhao/json-docstore/pool"
	"github.com/leapzhao/json-docstore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert_ReturnsReloadedDocument(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()

	doc, err := s.Insert(ctx, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"a":1}`, string(doc.Payload))
	assert.Positive(t, doc.InternalID)
	assert.Len(t, doc.ExternalID, 36)
	assert.Equal(t, utils.CalculateHash([]byte(`{"a":1}`)), doc.ContentHash)

	var (
		internalID int64
		payload    string
	)
	err = s.pool.DB().QueryRow(
		`SELECT internal_id, payload FROM documents WHERE external_id = ?`, doc.ExternalID,
	).Scan(&internalID, &payload)
	require.NoError(t, err)
	assert.Equal(t, doc.InternalID, internalID)
	assert.JSONEq(t, `{"a":1}`, payload)
}

func TestInsert_RoundTripFidelity(t *testing.T) {
	s := createTestStore(t, 2)
	payloads := []string{
		`{"a":1}`,
		`{"nested":{"list":[1,2.5,"three",false,null],"empty":{}}}`,
		`[1,2,3]`,
		`"just a string"`,
		`42`,
		`null`,
		`true`,
		`{"unicode":"héllo 世界","html":"<b>&</b>","escaped":"line\nbreak"}`,
		`{"big":12345678901234567890}`,
	}

	for _, p := range payloads {
		doc, err := s.Insert(context.Background(), json.RawMessage(p))
		require.NoError(t, err, p)
		assert.JSONEq(t, p, string(doc.Payload), p)
	}
}

func TestInsert_PreservesLargeIntegers(t *testing.T) {
	s := createTestStore(t, 1)

	doc, err := s.Insert(context.Background(), json.RawMessage(`{"big":12345678901234567890}`))
	require.NoError(t, err)
	assert.Equal(t, `{"big":12345678901234567890}`, string(doc.Payload))
}

func TestInsert_NotIdempotent(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()

	first, err := s.Insert(ctx, json.RawMessage(`{"same":"payload"}`))
	require.NoError(t, err)
	second, err := s.Insert(ctx, json.RawMessage(`{"same":"payload"}`))
	require.NoError(t, err)

	assert.NotEqual(t, first.ExternalID, second.ExternalID)
	assert.NotEqual(t, first.InternalID, second.InternalID)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, 2, countRows(t, s))
}

func TestInsert_ConcurrentUniqueness(t *testing.T) {
	const workers = 20
	s := createTestStore(t, 4)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.Insert(context.Background(), json.RawMessage(`{"n":`+jsonInt(i)+`}`))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, ids[doc.ExternalID], "duplicate external id %s", doc.ExternalID)
			ids[doc.ExternalID] = true
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, workers)
	assert.Equal(t, workers, countRows(t, s))
	assert.Equal(t, 0, s.Stats().InUse)
}

func TestInsert_InvalidPayload(t *testing.T) {
	s := createTestStore(t, 1)

	_, err := s.Insert(context.Background(), json.RawMessage(`{"unterminated"`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, 0, countRows(t, s))
	assert.Equal(t, 1, s.Stats().Available)
}

func TestInsert_WriteFailureDoesNotLeak(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()

	before := s.Stats().Available
	_, err := s.pool.DB().Exec(`DROP TABLE documents`)
	require.NoError(t, err)

	_, err = s.Insert(ctx, json.RawMessage(`{"a":1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.NotErrorIs(t, err, ErrReadBack)

	assert.Equal(t, before, s.Stats().Available)
	assert.Equal(t, 0, s.Stats().InUse)
}

func TestInsertWith_InjectedWriteFailure(t *testing.T) {
	s := createTestStore(t, 1)
	ctx := context.Background()
	injected := errors.New("connection reset")

	err := s.pool.With(ctx, func(lease *pool.Lease) error {
		_, err := s.InsertWith(ctx, failingExec{Querier: lease, err: injected}, json.RawMessage(`{"a":1}`))
		return err
	})

	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, injected)
	assert.Equal(t, 1, s.Stats().Available)
	assert.Equal(t, 0, countRows(t, s))
}

func TestInsertWith_ZeroRowsAffected(t *testing.T) {
	s := createTestStore(t, 1)
	ctx := context.Background()

	err := s.pool.With(ctx, func(lease *pool.Lease) error {
		_, err := s.InsertWith(ctx, zeroRowsExec{Querier: lease}, json.RawMessage(`{}`))
		return err
	})

	assert.ErrorIs(t, err, ErrWrite)
}

func TestInsertWith_ReadBackMissingRow(t *testing.T) {
	s := createTestStore(t, 1)
	ctx := context.Background()

	var doc *model.Document
	err := s.pool.With(ctx, func(lease *pool.Lease) error {
		var err error
		doc, err = s.InsertWith(ctx, redirectQuerier{Querier: lease, target: "no-such-id"}, json.RawMessage(`{"a":1}`))
		return err
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadBack)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.Nil(t, doc)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.ExternalID)
	assert.Equal(t, "reload", se.Op)

	// 写入已提交
	assert.Equal(t, 1, countRows(t, s))
	assert.Equal(t, 1, s.Stats().Available)
}

func TestInsertWith_ReadBackDetectsOtherRow(t *testing.T) {
	s := createTestStore(t, 1)
	ctx := context.Background()

	other, err := s.Insert(ctx, json.RawMessage(`{"other":true}`))
	require.NoError(t, err)

	err = s.pool.With(ctx, func(lease *pool.Lease) error {
		_, err := s.InsertWith(ctx, redirectQuerier{Querier: lease, target: other.ExternalID}, json.RawMessage(`{"mine":true}`))
		return err
	})

	assert.ErrorIs(t, err, ErrReadBack)
}

func TestInsert_IDCollisionIsChecked(t *testing.T) {
	gen := func() (string, error) { return "00000000-0000-4000-8000-000000000000", nil }
	s := createTestStore(t, 1, WithIDGenerator(gen))
	ctx := context.Background()

	_, err := s.Insert(ctx, json.RawMessage(`{"first":1}`))
	require.NoError(t, err)

	_, err = s.Insert(ctx, json.RawMessage(`{"second":2}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIDCollision)
	assert.ErrorIs(t, err, ErrWrite)

	var payload string
	require.NoError(t, s.pool.DB().QueryRow(`SELECT payload FROM documents`).Scan(&payload))
	assert.Equal(t, `{"first":1}`, payload)
	assert.Equal(t, 1, countRows(t, s))
}

func TestInsert_IDGeneratorFailure(t *testing.T) {
	gen := func() (string, error) { return "", errors.New("entropy unavailable") }
	s := createTestStore(t, 1, WithIDGenerator(gen))

	_, err := s.Insert(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, 0, countRows(t, s))
}

func TestInsert_PoolClosed(t *testing.T) {
	s := createTestStore(t, 1)
	require.NoError(t, s.Close())

	_, err := s.Insert(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, pool.ErrPoolClosed)
	assert.ErrorIs(t, s.HealthCheck(context.Background()), pool.ErrPoolClosed)
}

func TestInsert_PoolExhausted(t *testing.T) {
	s := createTestStore(t, 1)
	ctx := context.Background()

	held, err := s.pool.Acquire(ctx)
	require.NoError(t, err)
	defer held.Release()

	// createTestStore 的等待上限为 2s
	_, err = s.Insert(ctx, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, pool.ErrPoolExhausted)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := createTestStore(t, 1)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, 0, countRows(t, s))
}

func TestNewRandomID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewRandomID()
		require.NoError(t, err)
		require.Len(t, id, 36)
		assert.Equal(t, byte('4'), id[14], "expected version 4 uuid: %s", id)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestStoreError_Message(t *testing.T) {
	err := newStoreError("reload", ErrReadBack, "abc", errors.New("row not found after insert"))
	assert.Equal(t, "reload: document read-back failed (external_id=abc): row not found after insert", err.Error())

	bare := newStoreError("insert", ErrInvalidPayload, "", nil)
	assert.Equal(t, "insert: invalid JSON payload", bare.Error())
	assert.ErrorIs(t, bare, ErrInvalidPayload)
	assert.NotErrorIs(t, bare, ErrWrite)
}

func jsonInt(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
