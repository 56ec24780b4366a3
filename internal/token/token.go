package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"uk.co.dudmesh.contacts/internal/model"
)

// Service issues and verifies compact signed bearer tokens. Session,
// confirmation and reset tokens all share the same secret and signing
// algorithm; nothing distinguishes them beyond their lifetime.
type Service struct {
	secret []byte
}

func New(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue signs a token whose subject is the user's email, expiring after ttl.
func (s *Service) Issue(email string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject email of a valid token. Expired, forged and
// malformed tokens all collapse to ErrorInvalidToken so callers cannot tell
// them apart.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", model.ErrorInvalidToken
	}
	if claims.Subject == "" {
		return "", model.ErrorInvalidToken
	}
	return claims.Subject, nil
}
