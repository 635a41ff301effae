package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models"
	"mediscript/internal/httputil"
)

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.ReviewerClaims, error) {
	if token != "good" {
		return nil, domain.ErrUnauthorized
	}
	return &models.ReviewerClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "rph-42"}}, nil
}

func (stubVerifier) Close() error { return nil }

func echoReviewer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, httputil.GetReviewerID(r))
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(stubVerifier{}, discardLogger())(echoReviewer())

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "/api/records", "Bearer good", http.StatusOK, "rph-42"},
		{"missing header", "/api/records", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/records", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "/api/records", "Bearer bad", http.StatusUnauthorized, ""},
		{"public health", "/health", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestDevIdentity(t *testing.T) {
	h := DevIdentity(echoReviewer())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, DefaultDevReviewer, w.Body.String())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(ReviewerHeader, "rph-9")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "rph-9", w.Body.String())
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
