package record

import (
	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"
)

// Approve returns an approved copy of a pending record. Null fields are
// allowed. Approving an already approved record fails with
// domain.GateAlreadyApproved; any other non-pending status fails with
// domain.GateNotPending.
func Approve(r *models.Record) (*models.Record, error) {
	switch {
	case r.IsApproved():
		return nil, &domain.GateError{Kind: domain.GateAlreadyApproved, RecordID: r.ID}
	case r.Status != models.StatusPending:
		return nil, &domain.GateError{Kind: domain.GateNotPending, RecordID: r.ID}
	}
	out := r.Clone()
	out.Status = models.StatusApproved
	return out, nil
}
