package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/repositories"
	"mediscript/internal/repository/memory"
)

func newTestStore(t *testing.T, backend repositories.KVBackend) *Store {
	t.Helper()
	seq := 0
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewStore(backend, "", slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("rec-%d", seq)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
}

func draft(docType string) *record.Record {
	return &record.Record{DocumentType: docType}
}

func TestUpsertInsertsAtHead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	first, err := s.Upsert(ctx, draft("first"))
	require.NoError(t, err)
	assert.Equal(t, "rec-1", first.ID)
	assert.Equal(t, record.StatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.Upsert(ctx, draft("second"))
	require.NoError(t, err)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	a, err := s.Upsert(ctx, draft("a"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, draft("b"))
	require.NoError(t, err)

	edited := a.Clone()
	edited.Patient.Name = record.Str("Jane Doe")
	edited.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	replaced, err := s.Upsert(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, a.CreatedAt, replaced.CreatedAt, "createdAt is fixed at first persistence")

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, a.ID, records[1].ID, "replacement keeps its position")
	assert.Equal(t, "Jane Doe", *records[1].Patient.Name)
}

func TestUpsertUnknownIDGoesToHead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	_, err := s.Upsert(ctx, draft("a"))
	require.NoError(t, err)

	imported := draft("imported")
	imported.ID = "external-7"
	stored, err := s.Upsert(ctx, imported)
	require.NoError(t, err)
	assert.Equal(t, "external-7", stored.ID)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "external-7", records[0].ID)
}

func TestUpsertApprovedIsImmutable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	r := draft("a")
	r.Status = record.StatusApproved
	stored, err := s.Upsert(ctx, r)
	require.NoError(t, err)

	again := stored.Clone()
	again.Status = record.StatusPending
	_, err = s.Upsert(ctx, again)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, domain.StoreImmutable, storeErr.Kind)

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved())
}

func TestUpsertDoesNotAliasInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	in := draft("a")
	in.Patient.Name = record.Str("Jane")
	stored, err := s.Upsert(ctx, in)
	require.NoError(t, err)

	assert.Empty(t, in.ID)
	*in.Patient.Name = "changed"
	assert.Equal(t, "Jane", *stored.Patient.Name)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	stored, err := s.Upsert(ctx, draft("a"))
	require.NoError(t, err)

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.DocumentType)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListEmptyAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBackend())

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = s.Upsert(ctx, draft("a"))
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	records, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCorruptCollection(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	require.NoError(t, backend.Update(ctx, DefaultKey, func([]byte) ([]byte, error) {
		return []byte(`{"not": "a list"}`), nil
	}))
	s := newTestStore(t, backend)

	_, err := s.List(ctx)
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, domain.StoreCorrupt, storeErr.Kind)

	_, err = s.Upsert(ctx, draft("a"))
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, domain.StoreCorrupt, storeErr.Kind)

	raw, err := backend.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"not": "a list"}`, string(raw), "corrupt data is never overwritten")
}

type downBackend struct{}

var errDown = errors.New("connection refused")

func (downBackend) Get(context.Context, string) ([]byte, error) { return nil, errDown }
func (downBackend) Update(context.Context, string, repositories.UpdateFn) error { return errDown }
func (downBackend) Delete(context.Context, string) error { return errDown }
func (downBackend) Close() error { return nil }

func TestBackendFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, downBackend{})

	tests := []struct {
		op  string
		run func() error
	}{
		{"upsert", func() error { _, err := s.Upsert(ctx, draft("a")); return err }},
		{"list", func() error { _, err := s.List(ctx); return err }},
		{"clear", func() error { return s.Clear(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			err := tt.run()
			var storeErr *domain.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, domain.StoreUnavailable, storeErr.Kind)
			assert.Equal(t, tt.op, storeErr.Op)
			assert.ErrorIs(t, err, errDown)
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, DefaultKey, NewStore(memory.NewBackend(), "", slog.Default()).Key())
	assert.Equal(t, "custom", NewStore(memory.NewBackend(), "custom", slog.Default()).Key())
}
