package handler

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"mediscript/internal/config"
	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/httputil"
)

// editRequest is one edit on the wire. Value must be present for the set
// operations; null clears the field.
type editRequest struct {
	Op    string                  `json:"op"`
	Path  string                  `json:"path,omitempty"`
	Index *int                    `json:"index,omitempty"`
	Field string                  `json:"field,omitempty"`
	Value httputil.OptionalString `json:"value"`
}

type editsRequest struct {
	Edits []editRequest `json:"edits"`
}

func (e editRequest) Validate() error {
	op := record.EditOp(e.Op)
	isSet := op == record.OpSetField || op == record.OpSetMedicationField
	isIndexed := op == record.OpSetMedicationField || op == record.OpRemoveMedication

	return validation.ValidateStruct(&e,
		validation.Field(&e.Op, validation.Required, validation.In(
			string(record.OpSetField),
			string(record.OpSetMedicationField),
			string(record.OpAddMedication),
			string(record.OpRemoveMedication),
		)),
		validation.Field(&e.Path, validation.When(op == record.OpSetField, validation.Required)),
		validation.Field(&e.Field, validation.When(op == record.OpSetMedicationField, validation.Required)),
		validation.Field(&e.Index, validation.When(isIndexed, validation.NotNil)),
		validation.Field(&e.Value, validation.When(isSet, validation.By(requirePresent))),
	)
}

func requirePresent(value any) error {
	if v, ok := value.(httputil.OptionalString); ok && !v.Present {
		return errors.New("is required (use null to clear)")
	}
	return nil
}

// toEdits validates the wire edits and converts them to domain edits.
func (req editsRequest) toEdits() ([]record.Edit, error) {
	if len(req.Edits) > config.MaxEditsPerRequest {
		return nil, fmt.Errorf("%w: at most %d edits per request", domain.ErrValidation, config.MaxEditsPerRequest)
	}

	edits := make([]record.Edit, 0, len(req.Edits))
	for i, e := range req.Edits {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: edit %d: %v", domain.ErrValidation, i, err)
		}
		edit := record.Edit{
			Op:    record.EditOp(e.Op),
			Path:  e.Path,
			Field: e.Field,
			Value: e.Value.Value,
		}
		if e.Index != nil {
			edit.Index = *e.Index
		}
		edits = append(edits, edit)
	}
	return edits, nil
}
