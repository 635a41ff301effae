package services

import (
	"context"

	"mediscript/internal/domain/models/record"
)

// ReviewService backs the review screen: loading records, previewing
// corrections, saving drafts and approving.
type ReviewService interface {
	List(ctx context.Context) ([]record.Record, error)
	Get(ctx context.Context, id string) (*record.Record, error)

	// Preview applies edits to the stored record and returns the result
	// without persisting anything.
	Preview(ctx context.Context, id string, edits []record.Edit) (*record.Record, error)

	// SaveDraft validates and stores a pending record.
	SaveDraft(ctx context.Context, r *record.Record) (*record.Record, error)

	// Approve applies edits, transitions the record to approved and stores it.
	Approve(ctx context.Context, id string, edits []record.Edit, reviewerID string) (*record.Record, error)

	// Clear removes every record.
	Clear(ctx context.Context) error
}
