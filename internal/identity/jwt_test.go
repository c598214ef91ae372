package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseSessionTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("a-test-signing-key")
	sessionID := uuid.New()

	raw, err := svc.IssueSessionToken(sessionID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	got, err := svc.ParseSessionToken(raw)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestParseSessionTokenRejectsWrongSigningKey(t *testing.T) {
	signed := NewTokenService("key-one")
	other := NewTokenService("key-two")

	raw, err := signed.IssueSessionToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.ParseSessionToken(raw)
	assert.Error(t, err)
}

func TestParseSessionTokenRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("a-test-signing-key")

	raw, err := svc.IssueSessionToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ParseSessionToken(raw)
	assert.Error(t, err)
}

func TestParseSessionTokenRejectsGarbage(t *testing.T) {
	svc := NewTokenService("a-test-signing-key")

	_, err := svc.ParseSessionToken("not-a-jwt")
	assert.Error(t, err)
}
