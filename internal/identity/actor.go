// Package identity resolves a session token to an Actor and manages the
// relational session table, replacing the teacher's in-memory cookie-session
// store with the durable table the REDESIGN FLAGS call for (§9).
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/platform/errs"
)

// Actor is the resolved user behind a request: tenant, role, and vendor
// scope if the actor is a supplier. GLOSSARY: "Actor".
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Internal bool
	VendorID *uuid.UUID // non-nil iff the actor is a supplier
}

// Role reports the coarse permission class used throughout §4.1's
// authorization rules.
func (a Actor) Role() domain.Role {
	if a.Internal {
		return domain.RoleInternal
	}
	return domain.RoleSupplier
}

// Service resolves session tokens and performs login/logout, the one
// collaborator the HTTP boundary calls before any other component runs.
type Service struct {
	db            *gorm.DB
	sessionTTL    time.Duration
}

func NewService(db *gorm.DB, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{db: db, sessionTTL: sessionTTL}
}

// Login validates credentials and opens a new session row. §6 POST /login.
func (s *Service) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*domain.Session, *domain.User, error) {
	var user domain.User
	// Login errors are uniform per §7: never reveal whether a tenant/email exists.
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND lower(email) = lower(?) AND active = ?", tenantID, email, true).
		First(&user).Error; err != nil {
		return nil, nil, errs.Authz("invalid_credentials", "invalid email or password")
	}

	if err := ValidatePassword(password, user.PasswordHash); err != nil {
		return nil, nil, errs.Authz("invalid_credentials", "invalid email or password")
	}

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, nil, errs.Wrap(errs.KindInternal, "session_create_failed", "could not start session", err)
	}

	return session, &user, nil
}

// Logout destroys a session. §6 POST /logout.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", sessionID).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "session_delete_failed", "could not end session", err)
	}
	return nil
}

// Resolve turns an opaque session id into an Actor. It is the single entry
// point every HTTP route calls before touching Case Registry / Thread /
// Evidence / SOA, per §2's control-flow description.
func (s *Service) Resolve(ctx context.Context, sessionID uuid.UUID) (Actor, error) {
	var session domain.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return Actor{}, errs.Authz("session_invalid", "session is invalid or expired")
	}
	if time.Now().After(session.ExpiresAt) {
		return Actor{}, errs.Authz("session_expired", "session is invalid or expired")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error; err != nil {
		return Actor{}, errs.Authz("session_invalid", "session is invalid or expired")
	}
	if !user.Active {
		return Actor{}, errs.Authz("session_invalid", "session is invalid or expired")
	}

	return Actor{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Internal: user.Internal,
		VendorID: user.VendorID,
	}, nil
}

// Refresh extends a session's expiry on use, §5 "session writes happen on
// login, on refresh, and on logout only".
func (s *Service) Refresh(ctx context.Context, sessionID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ?", sessionID).
		Update("expires_at", time.Now().Add(s.sessionTTL)).Error
}
