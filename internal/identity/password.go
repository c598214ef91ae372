package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances hashing latency against brute-force resistance,
// grounded on the teacher's security/bcrypt.go default.
const DefaultBcryptCost = 10

var ErrEmptyPassword = errors.New("password cannot be empty")

// HashPassword bcrypt-hashes a plaintext password for storage on User.PasswordHash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidatePassword reports whether password matches the stored bcrypt hash.
func ValidatePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
