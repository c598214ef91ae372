package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndValidateRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.NoError(t, ValidatePassword("correct horse battery staple", hash))
	assert.Error(t, ValidatePassword("wrong password", hash))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPasswordRejectsOverLongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 100))
	assert.Error(t, err, "bcrypt has a 72-byte input limit")
}
