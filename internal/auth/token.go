package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// Verifier validates a bearer credential and resolves it to an account id.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier validates HMAC-signed tokens whose subject claim carries the
// account id.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier over a shared HMAC secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token. Expired, unsigned or
// wrongly-signed tokens fail with ErrAuthFailed; there is no degraded
// anonymous mode.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrAuthFailed
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", domain.ErrAuthFailed
	}

	return subject, nil
}

// Sign issues a token for an account; used by tests and local tooling, the
// production issuer lives in the account service.
func Sign(secret, accountID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
