package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const (
	reviewerIDKey contextKey = "reviewerID"
)

// WithReviewerID adds the authenticated reviewer to the request context
func WithReviewerID(r *http.Request, reviewerID string) *http.Request {
	ctx := context.WithValue(r.Context(), reviewerIDKey, reviewerID)
	return r.WithContext(ctx)
}

// GetReviewerID retrieves the reviewer from context, returns empty string if not found
func GetReviewerID(r *http.Request) string {
	reviewerID, _ := r.Context().Value(reviewerIDKey).(string)
	return reviewerID
}
