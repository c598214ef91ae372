// JWT issuance for non-cookie API callers (§6 "HTTP/1.1 or HTTP/2 with
// cookie-bound sessions" names cookies as the primary transport; a signed
// JWT carrying the session id lets echo-jwt-protected API routes resolve
// the same session without re-parsing a cookie). Grounded directly on the
// teacher's security/jwt.go HS256 service built on lestrrat-go/jwx.
package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenService signs and verifies HS256 JWTs whose subject is a session id.
type TokenService struct {
	secret []byte
	issuer string
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: "vmp"}
}

// IssueSessionToken wraps a session id in a short-lived signed JWT.
func (t *TokenService) IssueSessionToken(sessionID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(sessionID.String()).
		Issuer(t.issuer).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("building session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return string(signed), nil
}

// ParseSessionToken verifies a signed JWT and extracts the session id.
func (t *TokenService) ParseSessionToken(raw string) (uuid.UUID, error) {
	token, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, t.secret), jwt.WithIssuer(t.issuer))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing session token: %w", err)
	}
	return uuid.Parse(token.Subject())
}
