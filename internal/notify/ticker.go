package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
)

// Posture derives the discrete SLA state from a due timestamp, §4.1.
func Posture(now time.Time, due *time.Time) domain.SLAPosture {
	if due == nil {
		return domain.PostureOnTrack
	}
	switch {
	case now.After(*due):
		return domain.PostureOverdue
	case due.Sub(now) <= 24*time.Hour:
		return domain.PostureDueToday
	case due.Sub(now) <= 48*time.Hour:
		return domain.PostureApproaching
	default:
		return domain.PostureOnTrack
	}
}

// Ticker periodically sweeps non-terminal cases and fires one notification
// per posture transition, per §4.7. Grounded on the teacher's background
// poller shape (containers/production) rewritten around a time.Ticker and
// context cancellation instead of a Docker-event loop.
type Ticker struct {
	db       *gorm.DB
	notifier *Service
	interval time.Duration
	logger   *logrus.Logger
}

func NewTicker(db *gorm.DB, notifier *Service, interval time.Duration, logger *logrus.Logger) *Ticker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ticker{db: db, notifier: notifier, interval: interval, logger: logger}
}

// Run blocks, sweeping every interval until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *Ticker) sweep(ctx context.Context) {
	var cases []domain.Case
	err := t.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.CaseStatus{domain.StatusResolved, domain.StatusCancelled}).
		Find(&cases).Error
	if err != nil {
		t.logger.WithError(err).Error("sla ticker: could not load cases")
		return
	}

	now := time.Now()
	for _, c := range cases {
		posture := Posture(now, c.SLADueAt)
		if posture == c.LastPosture {
			continue
		}
		if err := t.fireTransition(ctx, c, posture); err != nil {
			t.logger.WithError(err).WithField("case_id", c.ID).Error("sla ticker: case sweep failed")
		}
	}
}

func (t *Ticker) fireTransition(ctx context.Context, c domain.Case, posture domain.SLAPosture) error {
	if err := t.db.WithContext(ctx).Model(&domain.Case{}).
		Where("id = ?", c.ID).Update("last_posture", posture).Error; err != nil {
		return err
	}

	recipient := c.AssignedUserID
	if recipient == nil {
		return nil // no assignee yet; posture recorded, no one to notify
	}

	caseID := c.ID
	title := fmt.Sprintf("SLA %s", posture)
	body := fmt.Sprintf("Case %s is now %s", c.ID, posture)
	return t.notifier.Emit(ctx, *recipient, &caseID, KindSLAPosture, title, body)
}
