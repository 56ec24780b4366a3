package crypt

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// HashPassword returns a freshly salted bcrypt digest of password, wrapped
// in base64 for storage. Two calls with the same input produce different
// strings.
func HashPassword(password string) (string, error) {
	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("generating encoded password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(passwordBytes), nil
}

// VerifyPassword reports whether plaintext matches the stored digest. A
// malformed digest is treated as a mismatch, never an error.
func VerifyPassword(plaintext string, encoded string) bool {
	hash, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}
