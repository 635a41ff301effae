package record

import (
	"bytes"
	"time"

	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"
)

// Adapt turns a raw recognition payload into a draft record.
//
// Null and absent leaves stay null; nothing is guessed for redacted or
// unreadable fields. The draft is pending, stamped with now and carries no
// id, whatever the payload claimed.
func Adapt(raw []byte, now time.Time) (*models.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionEmptyResponse, Index: -1}
	}

	r, err := Validate(trimmed)
	if err != nil {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionSchemaMismatch, Index: -1, Err: err}
	}

	r.ID = ""
	r.Status = models.StatusPending
	r.CreatedAt = now
	return r, nil
}
