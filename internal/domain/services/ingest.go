package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
)

// BatchPolicy decides what happens to the rest of a batch after one
// document fails.
type BatchPolicy string

const (
	// PolicyFailFast stops at the first failed document.
	PolicyFailFast BatchPolicy = "fail_fast"
	// PolicyBestEffort keeps going and reports every failure at the end.
	PolicyBestEffort BatchPolicy = "best_effort"
)

// Progress is reported once per accepted document, after it finished,
// whether it succeeded or not.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Document  string `json:"document"`
	Error     string `json:"error,omitempty"`
}

// ProgressFunc receives batch progress. It is called synchronously from the
// orchestrator.
type ProgressFunc func(Progress)

// IngestService runs uploaded documents through extraction and initial
// persistence.
type IngestService interface {
	// Run processes docs sequentially in input order. The result is always
	// non-nil; the error is a *BatchError when any document failed.
	Run(ctx context.Context, docs []record.SourceDocument, progress ProgressFunc) (*BatchResult, error)
}

// BatchResult summarizes one batch.
type BatchResult struct {
	Policy    BatchPolicy       `json:"policy"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Records   []record.Record   `json:"records"`
	Failures  []DocumentFailure `json:"failures"`
	Skipped   []SkippedDocument `json:"skipped"`
}

// DocumentFailure attributes an error to one input document.
// Index is the position among accepted documents, starting at 0.
type DocumentFailure struct {
	Index    int    `json:"index"`
	Document string `json:"document"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// SkippedDocument is an upload that was never sent to extraction.
type SkippedDocument struct {
	Document    string `json:"document"`
	ContentType string `json:"content_type"`
	Reason      string `json:"reason"`
}

// BatchError is returned when at least one document of a batch failed.
type BatchError struct {
	Policy    BatchPolicy
	Total     int
	Succeeded int
	Failures  []DocumentFailure
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("batch: %d of %d documents succeeded", e.Succeeded, e.Total)
	}
	first := e.Failures[0]
	if e.Policy == PolicyFailFast {
		return fmt.Sprintf("batch aborted after %d of %d documents succeeded: %v", e.Succeeded, e.Total, first.Err)
	}
	return fmt.Sprintf("batch: %d of %d documents failed, first: %v", len(e.Failures), e.Total, first.Err)
}

// Unwrap exposes every per-document error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// StatusCode reports the status of the first failure.
func (e *BatchError) StatusCode() int {
	if len(e.Failures) > 0 {
		var httpErr domain.HTTPError
		if errors.As(e.Failures[0].Err, &httpErr) {
			return httpErr.StatusCode()
		}
	}
	return http.StatusInternalServerError
}
