package soa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/errs"
)

// Recompute re-runs the three-pass matcher over every line still in
// extracted status, preserving existing matches/issues, §4.6 "Recompute".
// Per-line failures are recorded as an issue and do not abort the sweep;
// ctx cancellation is honored between lines, §5 "Cancellation". caseID is
// scoped to actor's tenant the same way every other case lookup is.
func (s *Service) Recompute(ctx context.Context, actor identity.Actor, caseID uuid.UUID) error {
	if actor.Role() != domain.RoleInternal {
		return errs.Authz("internal_only", "only internal staff may recompute a statement")
	}
	var c domain.Case
	if err := s.db.WithContext(ctx).First(&c, "id = ? AND tenant_id = ?", caseID, actor.TenantID).Error; err != nil {
		return errs.NotFound("case_not_found", "case not found")
	}

	var lines []domain.SOALine
	if err := s.db.WithContext(ctx).Where("case_id = ? AND status = ?", caseID, domain.LineExtracted).
		Order("created_at asc").Find(&lines).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "soa_lines_load_failed", "could not load lines for recompute", err)
	}
	if len(lines) == 0 {
		return nil
	}

	var invoices []domain.Invoice
	if err := s.db.WithContext(ctx).Where("tenant_id = ? AND vendor_id = ?", c.TenantID, c.VendorID).Find(&invoices).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "invoice_load_failed", "could not load invoices", err)
	}

	used, err := s.matchedInvoiceIDs(ctx, caseID)
	if err != nil {
		return err
	}

	for _, line := range lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.matchLine(ctx, line, invoices, used); err != nil {
			s.recordMatchFailure(ctx, line)
		}
	}

	s.notifySignoffReadyIfClean(ctx, c)
	return nil
}

// notifySignoffReadyIfClean emits the §4.7 "SOA sign-off required"
// notification once every line is settled and no issue remains open. A
// missing assignee or notifier is a silent no-op; readiness is re-checked
// on every recompute, so a later emission still reaches an assignee
// added afterward.
func (s *Service) notifySignoffReadyIfClean(ctx context.Context, c domain.Case) {
	if s.notifier == nil || c.AssignedUserID == nil {
		return
	}
	var outstanding int64
	s.db.WithContext(ctx).Model(&domain.SOALine{}).
		Where("case_id = ? AND status IN ?", c.ID, []domain.SOALineStatus{domain.LineExtracted, domain.LineDiscrepancy}).
		Count(&outstanding)
	if outstanding > 0 {
		return
	}
	var openIssues int64
	s.db.WithContext(ctx).Model(&domain.SOAIssue{}).
		Joins("JOIN soa_lines ON soa_lines.id = soa_issues.line_id").
		Where("soa_lines.case_id = ? AND soa_issues.status = ?", c.ID, domain.IssueOpen).
		Count(&openIssues)
	if openIssues > 0 {
		return
	}
	caseID := c.ID
	_ = s.notifier.Emit(ctx, *c.AssignedUserID, &caseID, notify.KindSOASignoffNeeded, "Statement ready for sign-off", "All lines are matched or resolved; sign-off is now available")
}

// matchLine runs Pass A, B, then C (normalized) against invoices, inserting
// a match or an issue. used tracks invoice ids already claimed within this
// case so a second claimant is flagged as a duplicate instead of matched.
func (s *Service) matchLine(ctx context.Context, line domain.SOALine, invoices []domain.Invoice, used map[uuid.UUID]bool) error {
	inv, pass, amountDelta, daysDelta, found := findMatch(line, invoices, s.dateToleranceDays)
	if !found {
		return s.finalizeLine(ctx, line, nil, "", 0, 0, domain.IssueUnmatched, "no invoice matched this line")
	}
	if used[inv.ID] {
		return s.finalizeLine(ctx, line, nil, "", 0, 0, domain.IssueDuplicate, "invoice already matched to another line in this statement")
	}
	used[inv.ID] = true

	var issueType domain.IssueType
	var issueDesc string
	switch {
	case amountDelta != 0:
		issueType, issueDesc = domain.IssueAmountVariance, "matched invoice amount differs from statement line"
	case daysDelta != 0:
		issueType, issueDesc = domain.IssueDateVariance, "matched invoice date differs from statement line"
	}
	return s.finalizeLine(ctx, line, &inv.ID, pass, amountDelta, daysDelta, issueType, issueDesc)
}

func (s *Service) finalizeLine(ctx context.Context, line domain.SOALine, invoiceID *uuid.UUID, pass domain.MatchPass, amountDelta int64, daysDelta int, issueType domain.IssueType, issueDesc string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status := domain.LineDiscrepancy
		if invoiceID != nil {
			status = domain.LineMatched
			match := domain.SOAMatch{
				ID:               uuid.New(),
				LineID:           line.ID,
				InvoiceID:        *invoiceID,
				Pass:             pass,
				IsExact:          amountDelta == 0 && daysDelta == 0,
				AmountDeltaCents: amountDelta,
				DaysDelta:        daysDelta,
				CreatedAt:        now,
			}
			if err := tx.Create(&match).Error; err != nil {
				return err
			}
		}
		if issueType != "" {
			issue := domain.SOAIssue{
				ID:          uuid.New(),
				LineID:      line.ID,
				Type:        issueType,
				Description: issueDesc,
				Status:      domain.IssueOpen,
				CreatedAt:   now,
			}
			if err := tx.Create(&issue).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.SOALine{}).Where("id = ?", line.ID).Update("status", status).Error
	})
}

// recordMatchFailure marks a line with an "other" issue instead of aborting
// the recompute sweep, §7 "Local recovery".
func (s *Service) recordMatchFailure(ctx context.Context, line domain.SOALine) {
	now := time.Now()
	issue := domain.SOAIssue{
		ID:          uuid.New(),
		LineID:      line.ID,
		Type:        domain.IssueOther,
		Description: "matching failed for this line; retry recompute",
		Status:      domain.IssueOpen,
		CreatedAt:   now,
	}
	_ = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&issue).Error; err != nil {
			return err
		}
		return tx.Model(&domain.SOALine{}).Where("id = ?", line.ID).Update("status", domain.LineDiscrepancy).Error
	})
}

func (s *Service) matchedInvoiceIDs(ctx context.Context, caseID uuid.UUID) (map[uuid.UUID]bool, error) {
	var matches []domain.SOAMatch
	err := s.db.WithContext(ctx).
		Joins("JOIN soa_lines ON soa_lines.id = soa_matches.line_id").
		Where("soa_lines.case_id = ?", caseID).
		Find(&matches).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "soa_match_load_failed", "could not load existing matches", err)
	}
	used := make(map[uuid.UUID]bool, len(matches))
	for _, m := range matches {
		used[m.InvoiceID] = true
	}
	return used, nil
}

// findMatch runs Pass A, Pass B, then Pass C over invoices for a single
// line, returning the first hit, §4.6.
func findMatch(line domain.SOALine, invoices []domain.Invoice, toleranceDays int) (domain.Invoice, domain.MatchPass, int64, int, bool) {
	if inv, amountDelta, daysDelta, ok := passA(line, invoices, line.DocumentNumber, false); ok {
		return inv, domain.PassA, amountDelta, daysDelta, true
	}
	if inv, amountDelta, daysDelta, ok := passB(line, invoices, line.DocumentNumber, toleranceDays, false); ok {
		return inv, domain.PassB, amountDelta, daysDelta, true
	}
	normalizedLineNumber := normalizeDocumentNumber(line.DocumentNumber)
	if inv, amountDelta, daysDelta, ok := passA(line, invoices, normalizedLineNumber, true); ok {
		return inv, domain.PassC, amountDelta, daysDelta, true
	}
	if inv, amountDelta, daysDelta, ok := passB(line, invoices, normalizedLineNumber, toleranceDays, true); ok {
		return inv, domain.PassC, amountDelta, daysDelta, true
	}
	return domain.Invoice{}, "", 0, 0, false
}

// passA requires a document number hit (strict for Pass A/B, normalized for
// Pass C only — see matchNumber), currency, and amount, with zero date
// tolerance.
func passA(line domain.SOALine, invoices []domain.Invoice, number string, normalized bool) (domain.Invoice, int64, int, bool) {
	for _, inv := range invoices {
		if !matchNumber(inv.InvoiceNumber, number, normalized) {
			continue
		}
		if inv.Currency != line.Currency || inv.Amount != line.Amount {
			continue
		}
		if sameDay(inv.InvoiceDate, line.DocumentDate) {
			return inv, 0, 0, true
		}
	}
	return domain.Invoice{}, 0, 0, false
}

// passB relaxes passA's date equality to the configured tolerance, §4.6.
func passB(line domain.SOALine, invoices []domain.Invoice, number string, toleranceDays int, normalized bool) (domain.Invoice, int64, int, bool) {
	for _, inv := range invoices {
		if !matchNumber(inv.InvoiceNumber, number, normalized) {
			continue
		}
		if inv.Currency != line.Currency || inv.Amount != line.Amount {
			continue
		}
		delta := daysBetween(inv.InvoiceDate, line.DocumentDate)
		if delta == 0 {
			continue // exact-date matches belong to Pass A
		}
		if delta <= toleranceDays {
			return inv, 0, delta, true
		}
	}
	return domain.Invoice{}, 0, 0, false
}

// matchNumber reports whether invoiceNumber hits wanted. Pass A/B call this
// with normalized=false and must only ever take the strict-equality branch —
// §4.6 reserves normalized comparison for Pass C, so a raw line number that
// happens to equal the normalized form of an invoice number (e.g. line
// "inv001" vs invoice "INV-001") must NOT exact-match in Pass A/B.
func matchNumber(invoiceNumber, wanted string, normalized bool) bool {
	if invoiceNumber == wanted {
		return true
	}
	if normalized && normalizeDocumentNumber(invoiceNumber) == wanted {
		return true
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
