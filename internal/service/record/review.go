package record

import (
	"context"
	"fmt"
	"log/slog"

	"mediscript/internal/domain"
	models "mediscript/internal/domain/models/record"
	"mediscript/internal/domain/repositories"
	"mediscript/internal/domain/services"
)

// reviewService implements the ReviewService interface
type reviewService struct {
	repo   repositories.RecordRepository
	logger *slog.Logger
}

// NewReviewService creates a new review service
func NewReviewService(repo repositories.RecordRepository, logger *slog.Logger) services.ReviewService {
	return &reviewService{
		repo:   repo,
		logger: logger,
	}
}

func (s *reviewService) List(ctx context.Context) ([]models.Record, error) {
	return s.repo.List(ctx)
}

func (s *reviewService) Get(ctx context.Context, id string) (*models.Record, error) {
	return s.repo.Get(ctx, id)
}

// Preview applies edits in memory only. Discarding the preview discards the
// corrections.
func (s *reviewService) Preview(ctx context.Context, id string, edits []models.Edit) (*models.Record, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ApplyEdits(current, edits)
}

// SaveDraft stores a reviewer-edited record that is still pending.
func (s *reviewService) SaveDraft(ctx context.Context, r *models.Record) (*models.Record, error) {
	if r.IsApproved() {
		return nil, &domain.EditorError{Kind: domain.EditorRecordNotEditable, Detail: "drafts must be pending, use approve"}
	}
	draft := r.Clone()
	normalizeLeaves(draft)
	if err := ValidateRecord(draft); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	s.logger.Info("draft saved",
		"record_id", saved.ID,
		"medications", len(saved.Medications),
	)
	return saved, nil
}

// Approve applies the final edits, transitions the record and persists it.
// Nothing is stored when any step fails, so an approved status is only ever
// observed on a committed record.
func (s *reviewService) Approve(ctx context.Context, id string, edits []models.Edit, reviewerID string) (*models.Record, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	edited := current
	if len(edits) > 0 {
		edited, err = ApplyEdits(current, edits)
		if err != nil {
			return nil, err
		}
	}

	approved, err := Approve(edited)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, approved)
	if err != nil {
		return nil, fmt.Errorf("save approved record: %w", err)
	}

	s.logger.Info("record approved",
		"record_id", saved.ID,
		"reviewer_id", reviewerID,
		"edits", len(edits),
		"medications", len(saved.Medications),
	)
	return saved, nil
}

func (s *reviewService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.logger.Warn("record store cleared")
	return nil
}
