// Package thread appends and lists the immutable message log on a case,
// §4.2. Grounded on the teacher's repository pattern, with the case-scoped
// ordering lock replaced by Postgres's per-row update lock under a
// transaction (the teacher's coordinator package uses an explicit
// in-process mutex per unit of work; here the serialization point is the
// relational store itself, per §5 "shared-resource policy").
package thread

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/errs"
)

const maxBodyBytes = 10 * 1024

type Service struct {
	db       *gorm.DB
	notifier *notify.Service
}

func NewService(db *gorm.DB, notifier *notify.Service) *Service {
	return &Service{db: db, notifier: notifier}
}

// Append inserts a message, bumps the case's updated timestamp, toggles the
// waiting side as a convenience, and notifies the other party. §4.2.
func (s *Service) Append(ctx context.Context, actor identity.Actor, caseID uuid.UUID, body string, channel domain.ChannelSource, internalNote bool) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errs.Validation("empty_message", "message body must not be empty")
	}
	if len(body) > maxBodyBytes {
		return nil, errs.Validation("message_too_large", "message body exceeds 10 KB")
	}
	if internalNote && actor.Role() == domain.RoleSupplier {
		return nil, errs.Authz("internal_note_forbidden", "suppliers may not post internal notes")
	}
	if channel == "" {
		channel = domain.ChannelPortal
	}

	var c domain.Case
	q := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", caseID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&c).Error; err != nil {
		return nil, errs.NotFound("case_not_found", "case not found")
	}

	msg := &domain.Message{
		ID:           uuid.New(),
		CaseID:       caseID,
		SenderUserID: &actor.UserID,
		SenderParty:  actor.Role().ToParty(),
		Channel:      channel,
		Body:         body,
		InternalNote: internalNote,
		CreatedAt:    time.Now(),
	}

	newStatus := toggledStatus(c.Status, actor.Role())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return errs.Wrap(errs.KindInternal, "message_create_failed", "could not append message", err)
		}
		updates := map[string]interface{}{"updated_at": time.Now()}
		if newStatus != "" {
			updates["status"] = newStatus
		}
		return tx.Model(&domain.Case{}).Where("id = ?", caseID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyOtherParty(ctx, c, actor)
	return msg, nil
}

// toggledStatus implements §4.2's "convenience toggle": a reply from the
// side the case is currently waiting on hands the ball back to the other
// side. It never fires outside the two waiting states.
func toggledStatus(current domain.CaseStatus, role domain.Role) domain.CaseStatus {
	switch {
	case current == domain.StatusWaitingSupplier && role == domain.RoleSupplier:
		return domain.StatusWaitingInternal
	case current == domain.StatusWaitingInternal && role == domain.RoleInternal:
		return domain.StatusWaitingSupplier
	default:
		return ""
	}
}

func (s *Service) notifyOtherParty(ctx context.Context, c domain.Case, actor identity.Actor) {
	if s.notifier == nil {
		return
	}
	var recipient *uuid.UUID
	if actor.Role() == domain.RoleSupplier {
		recipient = c.AssignedUserID
	} else {
		var supplierUser domain.User
		if err := s.db.WithContext(ctx).
			Where("vendor_id = ? AND active = ?", c.VendorID, true).
			First(&supplierUser).Error; err == nil {
			recipient = &supplierUser.ID
		}
	}
	if recipient == nil {
		return
	}
	caseID := c.ID
	_ = s.notifier.Emit(ctx, *recipient, &caseID, notify.KindNewMessage, "New message", "A new message was posted to your case")
}

// List returns a case's messages in ascending created order, filtering
// internal-note messages out for supplier actors, §4.2/§8. caseID is
// scoped to actor's tenant (and vendor, for supplier actors) the same way
// Append scopes its own case lookup.
func (s *Service) List(ctx context.Context, actor identity.Actor, caseID uuid.UUID) ([]domain.Message, error) {
	caseQ := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", caseID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		caseQ = caseQ.Where("vendor_id = ?", *actor.VendorID)
	}
	var c domain.Case
	if err := caseQ.First(&c).Error; err != nil {
		return nil, errs.NotFound("case_not_found", "case not found")
	}

	q := s.db.WithContext(ctx).Where("case_id = ?", caseID)
	if actor.Role() == domain.RoleSupplier {
		q = q.Where("internal_note = ?", false)
	}
	var rows []domain.Message
	if err := q.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "message_list_failed", "could not list messages", err)
	}
	return rows, nil
}
