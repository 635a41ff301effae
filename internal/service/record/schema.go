package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// candidate is a record as decoded from untrusted JSON, before its nested
// parts are checked.
type candidate struct {
	ID           string          `json:"id"`
	DocumentType *string         `json:"document_type"`
	IssueDate    *string         `json:"issue_date"`
	Patient      json.RawMessage `json:"patient"`
	Prescriber   json.RawMessage `json:"prescriber"`
	Medications  json.RawMessage `json:"medications"`
	Status       json.RawMessage `json:"status"`
	CreatedAt    *time.Time      `json:"createdAt"`
}

// requiredOrder fixes which violation is reported first.
var requiredOrder = []string{"document_type", "patient", "prescriber", "medications"}

// Validate checks a candidate record and returns it in canonical form:
// missing optional leaves are null, blank leaves are null and a missing
// status is pending. Failures are *domain.SchemaError.
func Validate(data []byte) (*models.Record, error) {
	var c candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &domain.SchemaError{Kind: domain.SchemaMalformedObject, Field: "record", Index: -1, Err: err}
	}

	c.DocumentType = models.Normalize(c.DocumentType)
	c.Patient = nullToEmpty(c.Patient)
	c.Prescriber = nullToEmpty(c.Prescriber)
	c.Medications = nullToEmpty(c.Medications)

	if err := validateCandidate(&c); err != nil {
		return nil, err
	}
	status, err := decodeStatus(c.Status)
	if err != nil {
		return nil, err
	}

	r := &models.Record{
		ID:           c.ID,
		DocumentType: *c.DocumentType,
		IssueDate:    models.Normalize(c.IssueDate),
		Status:       status,
	}
	if c.CreatedAt != nil {
		r.CreatedAt = *c.CreatedAt
	}

	if err := decodeObject(c.Patient, "patient", &r.Patient); err != nil {
		return nil, err
	}
	if err := decodeObject(c.Prescriber, "prescriber", &r.Prescriber); err != nil {
		return nil, err
	}
	meds, err := decodeMedications(c.Medications)
	if err != nil {
		return nil, err
	}
	r.Medications = meds

	normalizeLeaves(r)
	return r, nil
}

// ValidateRecord re-checks the fields a typed record can still get wrong.
func ValidateRecord(r *models.Record) error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.DocumentType, validation.Required),
		validation.Field(&r.Status, validation.Required, validation.In(models.StatusPending, models.StatusApproved)),
	)
	return schemaErrorFrom(err)
}

func validateCandidate(c *candidate) error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.DocumentType, validation.Required),
		validation.Field(&c.Patient, validation.Required),
		validation.Field(&c.Prescriber, validation.Required),
		validation.Field(&c.Medications, validation.Required),
	)
	return schemaErrorFrom(err)
}

// schemaErrorFrom maps ozzo field errors onto the schema taxonomy.
func schemaErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &domain.SchemaError{Kind: domain.SchemaMalformedObject, Field: "record", Index: -1, Err: err}
	}
	for _, field := range requiredOrder {
		if fieldErr, ok := fieldErrs[field]; ok {
			return &domain.SchemaError{Kind: domain.SchemaMissingRequiredField, Field: field, Index: -1, Err: fieldErr}
		}
	}
	if fieldErr, ok := fieldErrs["status"]; ok {
		return &domain.SchemaError{Kind: domain.SchemaInvalidEnum, Field: "status", Index: -1, Err: fieldErr}
	}
	return &domain.SchemaError{Kind: domain.SchemaMalformedObject, Field: "record", Index: -1, Err: err}
}

// decodeStatus accepts a missing or null status as pending. Anything other
// than one of the known status strings is an invalid enum.
func decodeStatus(raw json.RawMessage) (models.Status, error) {
	raw = nullToEmpty(raw)
	if raw == nil {
		return models.StatusPending, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &domain.SchemaError{Kind: domain.SchemaInvalidEnum, Field: "status", Index: -1, Err: fmt.Errorf("expected a string, got %s", truncate(raw))}
	}
	if s == "" {
		return models.StatusPending, nil
	}
	status := models.Status(s)
	if err := validation.Validate(status, validation.In(models.StatusPending, models.StatusApproved)); err != nil {
		return "", &domain.SchemaError{Kind: domain.SchemaInvalidEnum, Field: "status", Index: -1, Err: err}
	}
	return status, nil
}

func decodeObject(raw json.RawMessage, field string, dest any) error {
	if firstByte(raw) != '{' {
		return &domain.SchemaError{Kind: domain.SchemaMalformedObject, Field: field, Index: -1, Err: errors.New("expected an object")}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &domain.SchemaError{Kind: domain.SchemaMalformedObject, Field: field, Index: -1, Err: err}
	}
	return nil
}

func decodeMedications(raw json.RawMessage) ([]models.MedicationLine, error) {
	if firstByte(raw) != '[' {
		return nil, &domain.SchemaError{Kind: domain.SchemaMalformedSequence, Field: "medications", Index: -1, Err: errors.New("expected an array")}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.SchemaError{Kind: domain.SchemaMalformedSequence, Field: "medications", Index: -1, Err: err}
	}

	meds := make([]models.MedicationLine, 0, len(items))
	for i, item := range items {
		if firstByte(item) != '{' {
			return nil, &domain.SchemaError{Kind: domain.SchemaMalformedSequence, Field: "medications", Index: i, Err: fmt.Errorf("expected an object, got %s", truncate(item))}
		}
		var line models.MedicationLine
		if err := json.Unmarshal(item, &line); err != nil {
			return nil, &domain.SchemaError{Kind: domain.SchemaMalformedSequence, Field: "medications", Index: i, Err: err}
		}
		meds = append(meds, line)
	}
	return meds, nil
}

// normalizeLeaves turns blank strings into null across every leaf.
func normalizeLeaves(r *models.Record) {
	for _, f := range models.Fields() {
		if ref := f.Ref(r); ref != nil {
			*ref = models.Normalize(*ref)
		}
	}
	for i := range r.Medications {
		for _, f := range models.MedFields() {
			ref := f.Ref(&r.Medications[i])
			*ref = models.Normalize(*ref)
		}
	}
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func truncate(raw json.RawMessage) string {
	const limit = 32
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
