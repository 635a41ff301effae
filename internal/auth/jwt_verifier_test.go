package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models"
)

func newTestVerifier(t *testing.T) (*JWKSVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	kf := func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}
	return NewKeyfuncVerifier(kf, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims models.ReviewerClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() models.ReviewerClaims {
	return models.ReviewerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "pharmacist-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "rx@example.com",
		Role:  "authenticated",
	}
}

func TestVerifyToken(t *testing.T) {
	v, key := newTestVerifier(t)

	claims, err := v.VerifyToken(sign(t, key, validClaims()))
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if got := claims.GetReviewerID(); got != "pharmacist-7" {
		t.Errorf("GetReviewerID() = %q", got)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	v, key := newTestVerifier(t)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noSubject := validClaims()
	noSubject.Subject = ""

	anonymous := validClaims()
	anonymous.IsAnonymous = true

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hmac: %v", err)
	}

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}
	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodES256, validClaims()).SignedString(ecKey)
	if err != nil {
		t.Fatalf("sign es256: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", sign(t, key, expired)},
		{"missing subject", sign(t, key, noSubject)},
		{"anonymous", sign(t, key, anonymous)},
		{"hmac algorithm", hmac},
		{"wrong key", wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("VerifyToken() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}
