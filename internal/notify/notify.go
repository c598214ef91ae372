// Package notify emits the row-insertion notifications named in §4.7 and
// runs the periodic SLA Ticker. Row emission is grounded on the teacher's
// notification/rapidmail.go generalized away from its email/RapidMail
// specifics into a transport-agnostic record; the optional live fan-out
// is grounded on queue/redis/queue.go's go-redis client, repurposed from a
// blocking job queue into a pub/sub broadcast of the same rows.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/platform/errs"
)

// Kind values match §4.7's named emission points.
const (
	KindNewMessage       = "new_message"
	KindEvidenceVerified = "evidence_verified"
	KindEvidenceRejected = "evidence_rejected"
	KindCaseEscalated    = "case_escalated"
	KindSOASignoffNeeded = "soa_signoff_required"
	KindSLAPosture       = "sla_posture_transition"
)

// channel is the pub/sub topic live subscribers listen on; best-effort and
// independent of the durable row, which is the system of record.
const channel = "vmp:notifications"

// Service inserts notification rows and, when a redis client is configured,
// republishes them for live delivery. The redis leg never fails emission:
// a publish failure is ignored (neither logged nor returned), since the row
// is already durable.
type Service struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, redis: rdb}
}

// Emit inserts a notification for userID, optionally scoped to a case.
func (s *Service) Emit(ctx context.Context, userID uuid.UUID, caseID *uuid.UUID, kind, title, body string) error {
	n := domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		CaseID:    caseID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "notification_emit_failed", "could not record notification", err)
	}
	s.publish(ctx, n)
	return nil
}

func (s *Service) publish(ctx context.Context, n domain.Notification) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.redis.Publish(ctx, channel, payload)
}

// List returns a user's notifications, newest first, for the supplier/internal inbox badge.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	var rows []domain.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "notification_list_failed", "could not load notifications", err)
	}
	return rows, nil
}

// MarkRead flips a notification's read flag; scoped to its owning user.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return errs.Wrap(errs.KindInternal, "notification_update_failed", "could not update notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("notification_not_found", "notification not found")
	}
	return nil
}
