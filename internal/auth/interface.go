package auth

import "mediscript/internal/domain/models"

// JWTVerifier validates bearer tokens presented by reviewers.
type JWTVerifier interface {
	// VerifyToken returns the token's claims, or domain.ErrUnauthorized when
	// the token is invalid, expired or signed with a disallowed algorithm.
	VerifyToken(tokenString string) (*models.ReviewerClaims, error)

	// Close releases resources held by the verifier.
	Close() error
}
