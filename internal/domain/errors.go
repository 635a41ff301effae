package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// SchemaErrorKind classifies a malformed record shape.
type SchemaErrorKind string

const (
	SchemaMissingRequiredField SchemaErrorKind = "missing_required_field"
	SchemaInvalidEnum          SchemaErrorKind = "invalid_enum"
	SchemaMalformedSequence    SchemaErrorKind = "malformed_sequence"
	SchemaMalformedObject      SchemaErrorKind = "malformed_object"
)

// SchemaError reports a candidate record that does not match the record shape.
// Index is the offending medication position for malformed_sequence, -1 otherwise.
type SchemaError struct {
	Kind  SchemaErrorKind
	Field string
	Index int
	Err   error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema: %s: %s", e.Kind, e.Field)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s[%d]", msg, e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error        { return e.Err }
func (e *SchemaError) StatusCode() int      { return http.StatusBadRequest }
func (e *SchemaError) Is(target error) bool { return target == ErrValidation }

// ExtractionErrorKind classifies an unusable recognition result.
type ExtractionErrorKind string

const (
	ExtractionEmptyResponse     ExtractionErrorKind = "empty_response"
	ExtractionSchemaMismatch    ExtractionErrorKind = "schema_mismatch"
	ExtractionRecognitionFailed ExtractionErrorKind = "recognition_failed"
)

// ExtractionError reports that the recognition service returned nothing usable
// for one input document. Document and Index are filled in by the batch
// orchestrator; Index is the 0-based batch position, -1 outside a batch.
type ExtractionError struct {
	Kind     ExtractionErrorKind
	Document string
	Index    int
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := "extraction: " + string(e.Kind)
	if e.Document != "" {
		msg = fmt.Sprintf("extraction: document %d (%s): %s", e.Index, e.Document, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error   { return e.Err }
func (e *ExtractionError) StatusCode() int { return http.StatusBadGateway }

// EditorErrorKind classifies an illegal review edit.
type EditorErrorKind string

const (
	EditorUnknownPath       EditorErrorKind = "unknown_path"
	EditorIndexOutOfRange   EditorErrorKind = "index_out_of_range"
	EditorRecordNotEditable EditorErrorKind = "record_not_editable"
	EditorInvalidValue      EditorErrorKind = "invalid_value"
)

// EditorError rejects a single edit. The record the edit was applied to is
// left untouched.
type EditorError struct {
	Kind   EditorErrorKind
	Detail string
}

func (e *EditorError) Error() string {
	if e.Detail == "" {
		return "editor: " + string(e.Kind)
	}
	return fmt.Sprintf("editor: %s: %s", e.Kind, e.Detail)
}

func (e *EditorError) StatusCode() int {
	if e.Kind == EditorRecordNotEditable {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (e *EditorError) Is(target error) bool {
	return target == ErrValidation && e.Kind != EditorRecordNotEditable
}

// GateErrorKind classifies a rejected approval.
type GateErrorKind string

const (
	GateAlreadyApproved GateErrorKind = "already_approved"
	GateNotPending      GateErrorKind = "not_pending"
)

// GateError rejects an approval transition.
type GateError struct {
	Kind     GateErrorKind
	RecordID string
}

func (e *GateError) Error() string {
	if e.RecordID == "" {
		return "approval: " + string(e.Kind)
	}
	return fmt.Sprintf("approval: record %s: %s", e.RecordID, e.Kind)
}

func (e *GateError) StatusCode() int { return http.StatusConflict }

// StoreErrorKind classifies a persistence failure.
type StoreErrorKind string

const (
	StoreUnavailable StoreErrorKind = "unavailable"
	StoreCorrupt     StoreErrorKind = "corrupt"
	StoreImmutable   StoreErrorKind = "immutable"
)

// StoreError reports a record store failure. It is surfaced verbatim; the
// store never retries on its own.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("store %s: %s", e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) StatusCode() int {
	switch e.Kind {
	case StoreImmutable:
		return http.StatusConflict
	case StoreCorrupt:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}
