package handler

import (
	"log/slog"
	"net/http"

	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
	"mediscript/internal/httputil"
)

// RecordHandler serves the review workflow.
type RecordHandler struct {
	review     services.ReviewService
	allowClear bool
	logger     *slog.Logger
}

// NewRecordHandler creates a record handler. allowClear enables DELETE /api/records.
func NewRecordHandler(review services.ReviewService, allowClear bool, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		review:     review,
		allowClear: allowClear,
		logger:     logger,
	}
}

// ListRecords returns every record, newest first
// GET /api/records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.review.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if records == nil {
		records = []record.Record{}
	}
	httputil.RespondJSON(w, http.StatusOK, records)
}

// GetRecord returns one record
// GET /api/records/{id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Record ID")
	if !ok {
		return
	}

	rec, err := h.review.Get(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, rec)
}

// PreviewEdits applies edits without saving them
// POST /api/records/{id}/preview
func (h *RecordHandler) PreviewEdits(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Record ID")
	if !ok {
		return
	}

	edits, ok := h.parseEdits(w, r)
	if !ok {
		return
	}

	rec, err := h.review.Preview(r.Context(), id, edits)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, rec)
}

// SaveDraft replaces a pending record with the submitted one
// PUT /api/records/{id}
func (h *RecordHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Record ID")
	if !ok {
		return
	}

	var body record.Record
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ID != "" && body.ID != id {
		httputil.RespondError(w, http.StatusBadRequest, "record id in body does not match path")
		return
	}
	body.ID = id
	if body.Status == "" {
		body.Status = record.StatusPending
	}

	// The record must exist; PUT does not create.
	if _, err := h.review.Get(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	saved, err := h.review.SaveDraft(r.Context(), &body)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, saved)
}

// ApproveRecord applies final edits and approves the record
// POST /api/records/{id}/approve
func (h *RecordHandler) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Record ID")
	if !ok {
		return
	}

	var edits []record.Edit
	if r.ContentLength != 0 {
		if edits, ok = h.parseEdits(w, r); !ok {
			return
		}
	}

	reviewerID := httputil.GetReviewerID(r)
	rec, err := h.review.Approve(r.Context(), id, edits, reviewerID)
	if err != nil {
		h.logger.Info("approval rejected",
			"record_id", id,
			"reviewer_id", reviewerID,
			"error", err,
		)
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, rec)
}

// ClearRecords deletes every record. Disabled in production.
// DELETE /api/records
func (h *RecordHandler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	if !h.allowClear {
		httputil.RespondError(w, http.StatusForbidden, "clearing records is disabled in this environment")
		return
	}

	if err := h.review.Clear(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	h.logger.Warn("records cleared over http", "reviewer_id", httputil.GetReviewerID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) parseEdits(w http.ResponseWriter, r *http.Request) ([]record.Edit, bool) {
	var req editsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	edits, err := req.toEdits()
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return edits, true
}
