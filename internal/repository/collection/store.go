// Package collection stores every record as one JSON array under a single
// namespaced key of a key-value backend.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/repositories"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "mediscript_prescriptions"

// Store implements repositories.RecordRepository on top of a KVBackend.
// Each upsert is one atomic read-modify-write of the whole collection.
type Store struct {
	backend repositories.KVBackend
	key     string
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id assignment.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a record store over backend. An empty key selects DefaultKey.
func NewStore(backend repositories.KVBackend, key string, logger *slog.Logger, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		backend: backend,
		key:     key,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the backend key holding the collection.
func (s *Store) Key() string {
	return s.key
}

// Upsert inserts or replaces r and returns the stored copy.
//
//   - no id: a fresh id is assigned, status defaults to pending, the record
//     goes to the head of the list
//   - known id: the entry is replaced in place and keeps its createdAt
//   - unknown id: the record goes to the head of the list
//
// Replacing an approved entry fails with domain.StoreImmutable.
func (s *Store) Upsert(ctx context.Context, r *record.Record) (*record.Record, error) {
	var stored *record.Record

	err := s.backend.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		records, err := decode(current)
		if err != nil {
			return nil, err
		}

		stored = r.Clone()
		if stored.Status == "" {
			stored.Status = record.StatusPending
		}

		if stored.ID == "" {
			stored.ID = s.newID()
			records = s.prepend(records, stored)
		} else if i := indexOf(records, stored.ID); i >= 0 {
			if records[i].IsApproved() {
				return nil, &domain.StoreError{Kind: domain.StoreImmutable, Op: "upsert", Err: fmt.Errorf("record %s is approved", stored.ID)}
			}
			stored.CreatedAt = records[i].CreatedAt
			records[i] = *stored
		} else {
			records = s.prepend(records, stored)
		}

		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("encode records: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, s.wrap("upsert", err)
	}

	s.logger.Debug("record upserted",
		"record_id", stored.ID,
		"status", stored.Status,
		"key", s.key,
	)
	return stored, nil
}

// List returns every record, most recently inserted first.
func (s *Store) List(ctx context.Context) ([]record.Record, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	return records, nil
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, id); i >= 0 {
		return &records[i], nil
	}
	return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
}

// Clear deletes the whole collection.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return s.wrap("clear", err)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) prepend(records []record.Record, r *record.Record) []record.Record {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	return append([]record.Record{*r}, records...)
}

// wrap passes store errors through and reports anything else as the
// backend being unavailable.
func (s *Store) wrap(op string, err error) error {
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &domain.StoreError{Kind: domain.StoreUnavailable, Op: op, Err: err}
}

func decode(data []byte) ([]record.Record, error) {
	if len(data) == 0 {
		return []record.Record{}, nil
	}
	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &domain.StoreError{Kind: domain.StoreCorrupt, Op: "decode", Err: err}
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}

func indexOf(records []record.Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
