package models

import "github.com/golang-jwt/jwt/v5"

// ReviewerClaims is the JWT claim set accepted from the identity provider.
type ReviewerClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetReviewerID returns the subject claim.
func (c *ReviewerClaims) GetReviewerID() string {
	return c.Subject
}
