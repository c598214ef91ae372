package soa

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/caseregistry"
	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/evidence"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/errs"
)

// Service is the SOA Reconciliation Engine, §4.6. dateToleranceDays is
// Pass B's allowed invoice/line date drift (config.DateToleranceDays,
// default 7).
type Service struct {
	db                *gorm.DB
	cases             *caseregistry.Registry
	evidence          *evidence.Service
	notifier          *notify.Service
	dateToleranceDays int
}

func NewService(db *gorm.DB, cases *caseregistry.Registry, evidenceVault *evidence.Service, notifier *notify.Service, dateToleranceDays int) *Service {
	if dateToleranceDays <= 0 {
		dateToleranceDays = 7
	}
	return &Service{db: db, cases: cases, evidence: evidenceVault, notifier: notifier, dateToleranceDays: dateToleranceDays}
}

// IngestInput is the request to load a vendor statement, §4.6 "Ingest".
type IngestInput struct {
	CompanyID   uuid.UUID
	VendorID    uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	CSV         []byte
}

// IngestResult reports the case the lines were attached to and any
// unparseable rows, §4.6.
type IngestResult struct {
	Case   *domain.Case
	Lines  int
	Errors []RowError
}

// Ingest parses a CSV statement, reuses or creates the vendor/period's soa
// case, attaches new lines, and runs the matcher over them. Re-ingesting
// the identical CSV produces no new lines, §8.
func (s *Service) Ingest(ctx context.Context, actor identity.Actor, in IngestInput) (*IngestResult, error) {
	if actor.Role() != domain.RoleInternal {
		return nil, errs.Authz("internal_only", "only internal staff may ingest a statement")
	}

	parsed, rowErrs, err := ParseCSV(bytes.NewReader(in.CSV))
	if err != nil {
		return nil, errs.Validation("soa_csv_unreadable", err.Error())
	}

	c, err := s.caseForPeriod(ctx, actor, in)
	if err != nil {
		return nil, err
	}

	var existing []domain.SOALine
	if err := s.db.WithContext(ctx).Where("case_id = ?", c.ID).Find(&existing).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "soa_lines_load_failed", "could not load existing lines", err)
	}
	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[lineDedupeKey(l.DocumentNumber, l.DocumentDate, l.Amount, l.Currency)] = true
	}

	now := time.Now()
	var toCreate []domain.SOALine
	for _, p := range parsed {
		key := lineDedupeKey(p.DocumentNumber, p.DocumentDate, p.AmountCents, p.Currency)
		if have[key] {
			continue
		}
		have[key] = true
		row := lineEntity(p)
		row.ID = uuid.New()
		row.CaseID = c.ID
		row.Status = domain.LineExtracted
		row.CreatedAt = now
		toCreate = append(toCreate, row)
	}
	if len(toCreate) > 0 {
		if err := s.db.WithContext(ctx).Create(&toCreate).Error; err != nil {
			return nil, errs.Wrap(errs.KindInternal, "soa_lines_create_failed", "could not persist statement lines", err)
		}
	}

	if err := s.Recompute(ctx, actor, c.ID); err != nil {
		return nil, err
	}

	// A freshly opened SOA case has no waiting party yet; ingest always
	// hands it to internal review so it can reach resolved via sign-off,
	// per §4.1's status matrix (open never transitions straight to resolved).
	if c.Status == domain.StatusOpen {
		if updated, err := s.cases.TransitionStatus(ctx, actor, c.ID, domain.StatusWaitingInternal); err == nil {
			c = updated
		}
	}

	return &IngestResult{Case: c, Lines: len(toCreate), Errors: rowErrs}, nil
}

func lineDedupeKey(docNumber string, date time.Time, amount int64, currency string) string {
	return fmt.Sprintf("%s|%s|%d|%s", docNumber, date.Format("2006-01-02"), amount, currency)
}

// caseForPeriod finds the open soa case for this vendor/company/period, or
// creates one, §4.6 "On first ingest, a soa case is created (or reused)".
func (s *Service) caseForPeriod(ctx context.Context, actor identity.Actor, in IngestInput) (*domain.Case, error) {
	start, end := in.PeriodStart.Format("2006-01-02"), in.PeriodEnd.Format("2006-01-02")
	var existing []domain.Case
	err := s.db.WithContext(ctx).Where(
		"tenant_id = ? AND vendor_id = ? AND company_id = ? AND case_type = ? AND status NOT IN ?",
		actor.TenantID, in.VendorID, in.CompanyID, domain.CaseSOA,
		[]domain.CaseStatus{domain.StatusResolved, domain.StatusCancelled},
	).Order("created_at desc").Find(&existing).Error
	if err == nil {
		for i := range existing {
			if existing[i].Metadata["period_start"] == start && existing[i].Metadata["period_end"] == end {
				return &existing[i], nil
			}
		}
	}

	subject := fmt.Sprintf("SOA reconciliation %s to %s", in.PeriodStart.Format("2006-01-02"), in.PeriodEnd.Format("2006-01-02"))
	return s.cases.Create(ctx, actor, caseregistry.CreateCaseInput{
		CompanyID: in.CompanyID,
		VendorID:  in.VendorID,
		CaseType:  domain.CaseSOA,
		Subject:   subject,
		Metadata: map[string]interface{}{
			"period_start": in.PeriodStart.Format("2006-01-02"),
			"period_end":   in.PeriodEnd.Format("2006-01-02"),
		},
	})
}
