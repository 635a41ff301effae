package record

import (
	"fmt"

	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"
)

// The editor functions below never modify their input. Each returns a fresh
// copy so callers can keep earlier versions for undo.

// SetField sets one scalar leaf outside the medication list. Blank values
// are stored as null.
func SetField(r *models.Record, field models.Field, value *string) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	value = models.Normalize(value)

	if field == models.FieldDocumentType {
		if value == nil {
			return nil, &domain.EditorError{Kind: domain.EditorInvalidValue, Detail: "document_type cannot be null"}
		}
		out := r.Clone()
		out.DocumentType = *value
		return out, nil
	}

	out := r.Clone()
	ref := field.Ref(out)
	if ref == nil {
		return nil, &domain.EditorError{Kind: domain.EditorUnknownPath, Detail: string(field)}
	}
	*ref = value
	return out, nil
}

// SetFieldPath is SetField addressed by a dotted wire path.
func SetFieldPath(r *models.Record, path string, value *string) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	field, ok := models.ParseField(path)
	if !ok {
		return nil, &domain.EditorError{Kind: domain.EditorUnknownPath, Detail: path}
	}
	return SetField(r, field, value)
}

// SetMedicationField sets one leaf of the medication line at index.
func SetMedicationField(r *models.Record, index int, field models.MedField, value *string) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	if err := checkIndex(r, index); err != nil {
		return nil, err
	}

	out := r.Clone()
	ref := field.Ref(&out.Medications[index])
	if ref == nil {
		return nil, &domain.EditorError{Kind: domain.EditorUnknownPath, Detail: "medications." + string(field)}
	}
	*ref = models.Normalize(value)
	return out, nil
}

// AddMedication appends an all-null medication line.
func AddMedication(r *models.Record) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	out := r.Clone()
	out.Medications = append(out.Medications, models.MedicationLine{})
	return out, nil
}

// RemoveMedication drops the medication line at index. Removing the last
// line leaves an empty list.
func RemoveMedication(r *models.Record, index int) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	if err := checkIndex(r, index); err != nil {
		return nil, err
	}
	out := r.Clone()
	out.Medications = append(out.Medications[:index], out.Medications[index+1:]...)
	return out, nil
}

// ApplyEdits applies edits left to right and stops at the first rejected
// one. The returned error names the position of the failing edit and wraps
// its *domain.EditorError.
func ApplyEdits(r *models.Record, edits []models.Edit) (*models.Record, error) {
	if err := checkEditable(r); err != nil {
		return nil, err
	}
	out := r.Clone()
	for i, e := range edits {
		next, err := applyEdit(out, e)
		if err != nil {
			return nil, fmt.Errorf("edit %d (%s): %w", i, e.Op, err)
		}
		out = next
	}
	return out, nil
}

func applyEdit(r *models.Record, e models.Edit) (*models.Record, error) {
	switch e.Op {
	case models.OpSetField:
		return SetFieldPath(r, e.Path, e.Value)
	case models.OpSetMedicationField:
		field, ok := models.ParseMedField(e.Field)
		if !ok {
			return nil, &domain.EditorError{Kind: domain.EditorUnknownPath, Detail: "medications." + e.Field}
		}
		return SetMedicationField(r, e.Index, field, e.Value)
	case models.OpAddMedication:
		return AddMedication(r)
	case models.OpRemoveMedication:
		return RemoveMedication(r, e.Index)
	default:
		return nil, &domain.EditorError{Kind: domain.EditorInvalidValue, Detail: fmt.Sprintf("unknown operation %q", e.Op)}
	}
}

func checkEditable(r *models.Record) error {
	if r.IsApproved() {
		return &domain.EditorError{Kind: domain.EditorRecordNotEditable, Detail: "record " + r.ID + " is approved"}
	}
	return nil
}

func checkIndex(r *models.Record, index int) error {
	if index < 0 || index >= len(r.Medications) {
		return &domain.EditorError{
			Kind:   domain.EditorIndexOutOfRange,
			Detail: fmt.Sprintf("index %d, %d medications", index, len(r.Medications)),
		}
	}
	return nil
}
