// Package ingest drives uploaded documents through recognition, adaptation
// and initial persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/repositories"
	"mediscript/internal/domain/services"
	recordsvc "mediscript/internal/service/record"
)

const pdfContentType = "application/pdf"

// Orchestrator implements services.IngestService. Documents are processed
// one at a time in input order.
type Orchestrator struct {
	recognizer services.Recognizer
	store      repositories.RecordRepository
	archive    repositories.SourceArchive
	policy     services.BatchPolicy
	now        func() time.Time
	logger     *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithArchive stores a copy of every successfully ingested document.
func WithArchive(archive repositories.SourceArchive) Option {
	return func(o *Orchestrator) { o.archive = archive }
}

// WithClock overrides the time used to stamp drafts.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates a batch orchestrator. An empty policy means fail-fast.
func NewOrchestrator(
	recognizer services.Recognizer,
	store repositories.RecordRepository,
	policy services.BatchPolicy,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	if policy == "" {
		policy = services.PolicyFailFast
	}
	o := &Orchestrator{
		recognizer: recognizer,
		store:      store,
		policy:     policy,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes docs and reports progress after each accepted document.
//
// Zip uploads are expanded into their members first. Non-PDF documents are
// skipped and listed in the result. Under fail-fast the
// first failure ends the batch; under best-effort every document is attempted.
// Cancellation is checked between documents only.
func (o *Orchestrator) Run(ctx context.Context, docs []record.SourceDocument, progress services.ProgressFunc) (*services.BatchResult, error) {
	expanded, skipped := expandArchives(docs)
	accepted, rejected := filterPDFs(expanded)
	skipped = append(skipped, rejected...)

	result := &services.BatchResult{
		Policy:   o.policy,
		Total:    len(accepted),
		Records:  []record.Record{},
		Failures: []services.DocumentFailure{},
		Skipped:  skipped,
	}

	for _, s := range skipped {
		o.logger.Warn("skipping upload",
			"document", s.Document,
			"content_type", s.ContentType,
			"reason", s.Reason,
		)
	}

	o.logger.Info("batch started",
		"total", result.Total,
		"skipped", len(skipped),
		"policy", o.policy,
		"recognizer", o.recognizer.Name(),
	)

	for i, doc := range accepted {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("batch cancelled",
				"completed", i,
				"total", result.Total,
			)
			return result, fmt.Errorf("batch cancelled after %d of %d documents: %w", i, result.Total, err)
		}

		stored, err := o.process(ctx, i, doc)
		report := services.Progress{Completed: i + 1, Total: result.Total, Document: doc.Name}

		if err != nil {
			result.Failures = append(result.Failures, services.DocumentFailure{
				Index:    i,
				Document: doc.Name,
				Err:      err,
				Message:  err.Error(),
			})
			report.Error = err.Error()
			o.logger.Error("document failed",
				"index", i,
				"document", doc.Name,
				"error", err,
			)
		} else {
			result.Succeeded++
			result.Records = append(result.Records, *stored)
		}

		if progress != nil {
			progress(report)
		}

		if err != nil && o.policy == services.PolicyFailFast {
			break
		}
	}

	o.logger.Info("batch finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, &services.BatchError{
			Policy:    o.policy,
			Total:     result.Total,
			Succeeded: result.Succeeded,
			Failures:  result.Failures,
		}
	}
	return result, nil
}

// process extracts and stores one document. Extraction failures carry the
// document's index and name.
func (o *Orchestrator) process(ctx context.Context, index int, doc record.SourceDocument) (*record.Record, error) {
	raw, err := o.recognizer.Recognize(ctx, doc)
	if err != nil {
		var extractionErr *domain.ExtractionError
		if !errors.As(err, &extractionErr) {
			err = &domain.ExtractionError{Kind: domain.ExtractionRecognitionFailed, Err: err}
		}
		return nil, attribute(err, index, doc.Name)
	}

	draft, err := recordsvc.Adapt(raw, o.now().UTC())
	if err != nil {
		return nil, attribute(err, index, doc.Name)
	}

	stored, err := o.store.Upsert(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("document %d (%s): %w", index, doc.Name, err)
	}

	o.logger.Info("document ingested",
		"index", index,
		"document", doc.Name,
		"record_id", stored.ID,
		"document_type", stored.DocumentType,
		"medications", len(stored.Medications),
	)

	if o.archive != nil {
		if err := o.archive.Put(ctx, stored.ID+".pdf", doc); err != nil {
			o.logger.Warn("failed to archive source document",
				"record_id", stored.ID,
				"document", doc.Name,
				"error", err,
			)
		}
	}

	return stored, nil
}

func attribute(err error, index int, name string) error {
	var extractionErr *domain.ExtractionError
	if errors.As(err, &extractionErr) {
		extractionErr.Index = index
		extractionErr.Document = name
	}
	return err
}

// filterPDFs splits docs into PDFs and skipped uploads. The declared content
// type wins; documents without one are sniffed.
func filterPDFs(docs []record.SourceDocument) ([]record.SourceDocument, []services.SkippedDocument) {
	accepted := make([]record.SourceDocument, 0, len(docs))
	skipped := []services.SkippedDocument{}

	for _, doc := range docs {
		contentType := DetectContentType(doc)
		if contentType == pdfContentType {
			doc.ContentType = contentType
			accepted = append(accepted, doc)
			continue
		}
		skipped = append(skipped, services.SkippedDocument{
			Document:    doc.Name,
			ContentType: contentType,
			Reason:      "only PDF documents are accepted",
		})
	}
	return accepted, skipped
}

// DetectContentType returns the media type of doc without parameters.
func DetectContentType(doc record.SourceDocument) string {
	contentType := doc.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(doc.Data)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mediaType
}
