package record

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
	"mediscript/internal/repository/collection"
	"mediscript/internal/repository/memory"
)

func newTestReview(t *testing.T) (services.ReviewService, *collection.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := collection.NewStore(memory.NewBackend(), "", logger)
	return NewReviewService(store, logger), store
}

func TestReviewEndToEnd(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	draft, err := Adapt([]byte(`{
		"document_type": "New Prescription",
		"patient": {"name": "Jane Doe"},
		"prescriber": {"name": "Dr. Smith"},
		"medications": []
	}`), time.Now())
	if err != nil {
		t.Fatalf("Adapt() error = %v", err)
	}
	stored, err := store.Upsert(ctx, draft)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var edits []models.Edit
	edits = append(edits, models.Edit{Op: models.OpAddMedication})
	for i, f := range models.MedFields() {
		edits = append(edits, models.Edit{
			Op:    models.OpSetMedicationField,
			Index: 0,
			Field: string(f),
			Value: models.Str("value-" + string(rune('a'+i))),
		})
	}

	approved, err := review.Approve(ctx, stored.ID, edits, "reviewer-1")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
	if len(approved.Medications) != 1 {
		t.Fatalf("len(Medications) = %d, want 1", len(approved.Medications))
	}
	for _, f := range models.MedFields() {
		if *f.Ref(&approved.Medications[0]) == nil {
			t.Errorf("medication field %s is null", f)
		}
	}

	got, err := review.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsApproved() || len(got.Medications) != 1 {
		t.Errorf("stored record = %+v", got)
	}

	_, err = review.Approve(ctx, stored.ID, nil, "reviewer-1")
	var gateErr *domain.GateError
	if !errors.As(err, &gateErr) || gateErr.Kind != domain.GateAlreadyApproved {
		t.Errorf("second Approve() error = %v, want already_approved", err)
	}

	_, err = review.Preview(ctx, stored.ID, []models.Edit{{Op: models.OpAddMedication}})
	assertEditorKind(t, err, domain.EditorRecordNotEditable)
}

func TestReviewPreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	stored, err := store.Upsert(ctx, &models.Record{DocumentType: "Refill Request"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	preview, err := review.Preview(ctx, stored.ID, []models.Edit{
		{Op: models.OpSetField, Path: "patient.name", Value: models.Str("John Roe")},
	})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if *preview.Patient.Name != "John Roe" {
		t.Errorf("preview Patient.Name = %v", preview.Patient.Name)
	}

	got, err := review.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Patient.Name != nil {
		t.Error("Preview() persisted its edits")
	}
}

func TestReviewApproveFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	stored, err := store.Upsert(ctx, &models.Record{DocumentType: "Refill Request"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	_, err = review.Approve(ctx, stored.ID, []models.Edit{
		{Op: models.OpSetField, Path: "patient.name", Value: models.Str("John Roe")},
		{Op: models.OpRemoveMedication, Index: 0},
	}, "reviewer-1")
	assertEditorKind(t, err, domain.EditorIndexOutOfRange)

	got, err := review.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.IsApproved() || got.Patient.Name != nil {
		t.Errorf("stored record changed after failed approval: %+v", got)
	}
}

func TestReviewSaveDraft(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	stored, err := store.Upsert(ctx, &models.Record{DocumentType: "Refill Request"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	edited := stored.Clone()
	edited.Patient.Name = models.Str("  ")
	edited.Prescriber.Name = models.Str("Dr. Lee")
	saved, err := review.SaveDraft(ctx, edited)
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	if saved.Patient.Name != nil {
		t.Error("blank patient name should be saved as null")
	}
	if !saved.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", saved.CreatedAt, stored.CreatedAt)
	}

	tests := []struct {
		name   string
		mutate func(r *models.Record)
		check  func(err error) bool
	}{
		{
			name:   "approved status",
			mutate: func(r *models.Record) { r.Status = models.StatusApproved },
			check: func(err error) bool {
				var editorErr *domain.EditorError
				return errors.As(err, &editorErr) && editorErr.Kind == domain.EditorRecordNotEditable
			},
		},
		{
			name:   "missing document type",
			mutate: func(r *models.Record) { r.DocumentType = "" },
			check:  func(err error) bool { return errors.Is(err, domain.ErrValidation) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := saved.Clone()
			tt.mutate(r)
			if _, err := review.SaveDraft(ctx, r); !tt.check(err) {
				t.Errorf("SaveDraft() error = %v", err)
			}
		})
	}
}

func TestReviewSaveDraftOverApproved(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	stored, err := store.Upsert(ctx, &models.Record{DocumentType: "x"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := review.Approve(ctx, stored.ID, nil, "reviewer-1"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	stale := stored.Clone()
	_, err = review.SaveDraft(ctx, stale)
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) || storeErr.Kind != domain.StoreImmutable {
		t.Errorf("SaveDraft() error = %v, want immutable", err)
	}
}

func TestReviewClear(t *testing.T) {
	ctx := context.Background()
	review, store := newTestReview(t)

	for range 3 {
		if _, err := store.Upsert(ctx, &models.Record{DocumentType: "x"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if err := review.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	records, err := review.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(List()) = %d, want 0", len(records))
	}

	if _, err := review.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want not found", err)
	}
}
