package repositories

import (
	"context"

	"mediscript/internal/domain/models/record"
)

// RecordRepository persists records keyed by id with upsert semantics.
// Implementations are the only place ids are assigned.
type RecordRepository interface {
	// Upsert inserts r when it has no id or an unknown id (at the head of the
	// list), or replaces the stored record with the same id in place.
	// Returns the record as stored.
	Upsert(ctx context.Context, r *record.Record) (*record.Record, error)

	// List returns every stored record, most recently inserted first.
	List(ctx context.Context) ([]record.Record, error)

	// Get returns the record with the given id or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, id string) (*record.Record, error)

	// Clear removes every stored record.
	Clear(ctx context.Context) error
}

// SourceArchive keeps a copy of each ingested source document.
type SourceArchive interface {
	Put(ctx context.Context, key string, doc record.SourceDocument) error
}
