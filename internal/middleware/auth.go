package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"mediscript/internal/auth"
	"mediscript/internal/httputil"
)

// DefaultDevReviewer is the identity used by DevIdentity when the request
// names none.
const DefaultDevReviewer = "local-reviewer"

// ReviewerHeader lets local tools pick a reviewer identity when JWT auth is off.
const ReviewerHeader = "X-Reviewer-ID"

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware requires a valid bearer token and stores its subject as the
// reviewer id.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("token rejected",
					"path", r.URL.Path,
					"error", err,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithReviewerID(r, claims.GetReviewerID()))
		})
	}
}

// DevIdentity trusts the X-Reviewer-ID header. Only for local development.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reviewerID := strings.TrimSpace(r.Header.Get(ReviewerHeader))
		if reviewerID == "" {
			reviewerID = DefaultDevReviewer
		}
		next.ServeHTTP(w, httputil.WithReviewerID(r, reviewerID))
	})
}
