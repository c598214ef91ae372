package soa

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/caseregistry"
	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/platform/config"
)

// setupActionsDB opens an in-memory database migrated with the same entity
// set store.Open runs against Postgres in production, grounded on the
// glebarez/sqlite + gorm.Open(..., &gorm.Config{}) pattern the pack's
// reconciler_test.go uses for its own gorm-backed integration tests.
func setupActionsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Case{},
		&domain.Message{},
		&domain.Invoice{},
		&domain.SOALine{},
		&domain.SOAMatch{},
		&domain.SOAIssue{},
	))
	return db
}

func internalActor(tenantID uuid.UUID) identity.Actor {
	return identity.Actor{UserID: uuid.New(), TenantID: tenantID, Internal: true}
}

// TestDisputeResolveSignoffEndToEnd exercises DisputeLine -> ResolveIssue ->
// SignOff against a real database, the path SignOff's gate (actions.go) was
// blocking forever before ResolveIssue learned to carry the line out of
// LineDiscrepancy.
func TestDisputeResolveSignoffEndToEnd(t *testing.T) {
	db := setupActionsDB(t)
	ctx := context.Background()
	actor := internalActor(uuid.New())

	cases := caseregistry.NewRegistry(db, nil, nil, nil, config.Default().SLAWindows)
	svc := NewService(db, cases, nil, nil, 7)

	c := domain.Case{
		ID:        uuid.New(),
		TenantID:  actor.TenantID,
		CompanyID: uuid.New(),
		VendorID:  uuid.New(),
		CaseType:  domain.CaseSOA,
		Status:    domain.StatusWaitingInternal,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&c).Error)

	line := domain.SOALine{
		ID:             uuid.New(),
		CaseID:         c.ID,
		DocumentNumber: "INV-900",
		DocumentDate:   time.Now(),
		Amount:         5000,
		Currency:       "USD",
		DocumentType:   "INV",
		Status:         domain.LineExtracted,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&line).Error)

	// Sign-off must be refused while the line's only issue is open.
	require.NoError(t, svc.DisputeLine(ctx, actor, line.ID, "amount does not match our records"))

	var disputed domain.SOALine
	require.NoError(t, db.First(&disputed, "id = ?", line.ID).Error)
	assert.Equal(t, domain.LineDiscrepancy, disputed.Status)

	_, err := svc.SignOff(ctx, actor, c.ID)
	require.Error(t, err, "sign-off must be blocked while the dispute is open")

	var issue domain.SOAIssue
	require.NoError(t, db.Where("line_id = ?", line.ID).First(&issue).Error)
	require.NoError(t, svc.ResolveIssue(ctx, actor, issue.ID, "confirmed against vendor records", false))

	var resolvedLine domain.SOALine
	require.NoError(t, db.First(&resolvedLine, "id = ?", line.ID).Error)
	assert.Equal(t, domain.LineResolved, resolvedLine.Status, "resolving the issue must carry the line out of discrepancy")

	updated, err := svc.SignOff(ctx, actor, c.ID)
	require.NoError(t, err, "sign-off must succeed once the issue is resolved")
	assert.Equal(t, domain.StatusResolved, updated.Status)
}

// TestResolveIssueIgnoredDispositionMarksLineIgnored covers the other
// disposition: a dispute that turns out to be a write-off rather than a
// confirmed match.
func TestResolveIssueIgnoredDispositionMarksLineIgnored(t *testing.T) {
	db := setupActionsDB(t)
	ctx := context.Background()
	actor := internalActor(uuid.New())

	cases := caseregistry.NewRegistry(db, nil, nil, nil, config.Default().SLAWindows)
	svc := NewService(db, cases, nil, nil, 7)

	c := domain.Case{
		ID: uuid.New(), TenantID: actor.TenantID, CompanyID: uuid.New(), VendorID: uuid.New(),
		CaseType: domain.CaseSOA, Status: domain.StatusWaitingInternal, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&c).Error)

	line := domain.SOALine{
		ID: uuid.New(), CaseID: c.ID, DocumentNumber: "INV-901", DocumentDate: time.Now(),
		Amount: 1200, Currency: "USD", DocumentType: "INV", Status: domain.LineExtracted, CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&line).Error)

	require.NoError(t, svc.DisputeLine(ctx, actor, line.ID, "duplicate statement entry"))

	var issue domain.SOAIssue
	require.NoError(t, db.Where("line_id = ?", line.ID).First(&issue).Error)
	require.NoError(t, svc.ResolveIssue(ctx, actor, issue.ID, "write off as duplicate", true))

	var ignored domain.SOALine
	require.NoError(t, db.First(&ignored, "id = ?", line.ID).Error)
	assert.Equal(t, domain.LineIgnored, ignored.Status)
}
