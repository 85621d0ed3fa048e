package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
// A mismatch is not an error; an error means the stored hash itself is
// unusable, which is a configuration problem and must fail closed.
func VerifyPassword(plaintext, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare password hash: %w", err)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
