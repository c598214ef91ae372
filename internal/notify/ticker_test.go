package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func TestPostureWithNoDueDateIsOnTrack(t *testing.T) {
	assert.Equal(t, domain.PostureOnTrack, Posture(time.Now(), nil))
}

func TestPostureTransitions(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want domain.SLAPosture
	}{
		{"far future is on track", now.Add(96 * time.Hour), domain.PostureOnTrack},
		{"within 48h is approaching", now.Add(36 * time.Hour), domain.PostureApproaching},
		{"within 24h is due today", now.Add(12 * time.Hour), domain.PostureDueToday},
		{"past due is overdue", now.Add(-time.Hour), domain.PostureOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := tt.due
			assert.Equal(t, tt.want, Posture(now, &due))
		})
	}
}

func TestPostureBoundaryAt48Hours(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)

	assert.Equal(t, domain.PostureApproaching, Posture(now, &due))
}

func TestPostureBoundaryAt24Hours(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)

	assert.Equal(t, domain.PostureDueToday, Posture(now, &due))
}
