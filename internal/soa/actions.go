package soa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/evidence"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/platform"
	"vendorops.io/vmp/internal/platform/errs"
)

// loadLineInScope loads a statement line scoped to actor's tenant (and
// vendor, for supplier actors) via its owning case, the same join
// caseregistry.Registry.load uses to scope a case lookup.
func (s *Service) loadLineInScope(ctx context.Context, actor identity.Actor, lineID uuid.UUID) (domain.SOALine, error) {
	var line domain.SOALine
	q := s.db.WithContext(ctx).
		Joins("JOIN cases ON cases.id = soa_lines.case_id").
		Where("soa_lines.id = ? AND cases.tenant_id = ?", lineID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return line, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("cases.vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&line).Error; err != nil {
		return line, errs.NotFound("soa_line_not_found", "statement line not found")
	}
	return line, nil
}

// loadIssueInScope loads a SOA issue the same way, via its line's case.
func (s *Service) loadIssueInScope(ctx context.Context, actor identity.Actor, issueID uuid.UUID) (domain.SOAIssue, error) {
	var issue domain.SOAIssue
	q := s.db.WithContext(ctx).
		Joins("JOIN soa_lines ON soa_lines.id = soa_issues.line_id").
		Joins("JOIN cases ON cases.id = soa_lines.case_id").
		Where("soa_issues.id = ? AND cases.tenant_id = ?", issueID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return issue, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("cases.vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&issue).Error; err != nil {
		return issue, errs.NotFound("soa_issue_not_found", "issue not found")
	}
	return issue, nil
}

// ManualMatch records a manually-asserted match between a line and an
// invoice, pass = "manual", §4.6 "Manual actions".
func (s *Service) ManualMatch(ctx context.Context, actor identity.Actor, lineID, invoiceID uuid.UUID) error {
	if actor.Role() != domain.RoleInternal {
		return errs.Authz("internal_only", "only internal staff may manually match statement lines")
	}
	line, err := s.loadLineInScope(ctx, actor, lineID)
	if err != nil {
		return err
	}
	var inv domain.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", invoiceID).Error; err != nil {
		return errs.NotFound("invoice_not_found", "invoice not found")
	}

	amountDelta := inv.Amount - line.Amount
	daysDelta := daysBetween(inv.InvoiceDate, line.DocumentDate)

	// A manual match is the one path that can legitimately produce a
	// nonzero delta (the reviewer is overriding the matcher's own
	// tolerance), so it opens the same variance issue matchLine would
	// have opened, keeping it visible to the sign-off gate instead of
	// silently folding it into the case's net variance.
	var issueType domain.IssueType
	var issueDesc string
	switch {
	case amountDelta != 0:
		issueType, issueDesc = domain.IssueAmountVariance, "manually matched invoice amount differs from statement line"
	case daysDelta != 0:
		issueType, issueDesc = domain.IssueDateVariance, "manually matched invoice date differs from statement line"
	}

	now := time.Now()
	return platform.WithDeadline(ctx, platform.DatabaseDeadline, func(dctx context.Context) error {
		return s.db.WithContext(dctx).Transaction(func(tx *gorm.DB) error {
			match := domain.SOAMatch{
				ID:               uuid.New(),
				LineID:           lineID,
				InvoiceID:        invoiceID,
				Pass:             domain.PassManual,
				IsExact:          amountDelta == 0 && daysDelta == 0,
				AmountDeltaCents: amountDelta,
				DaysDelta:        daysDelta,
				CreatedAt:        now,
			}
			if err := tx.Create(&match).Error; err != nil {
				return errs.Wrap(errs.KindInternal, "soa_match_create_failed", "could not record manual match", err)
			}
			status := domain.LineMatched
			if issueType != "" {
				issue := domain.SOAIssue{
					ID:          uuid.New(),
					LineID:      lineID,
					Type:        issueType,
					Description: issueDesc,
					Status:      domain.IssueOpen,
					CreatedAt:   now,
				}
				if err := tx.Create(&issue).Error; err != nil {
					return errs.Wrap(errs.KindInternal, "soa_issue_create_failed", "could not record match variance", err)
				}
				status = domain.LineDiscrepancy
			}
			return tx.Model(&domain.SOALine{}).Where("id = ?", lineID).Update("status", status).Error
		})
	})
}

// DisputeLine opens an issue against a line, §4.6 "dispute_line".
func (s *Service) DisputeLine(ctx context.Context, actor identity.Actor, lineID uuid.UUID, reason string) error {
	if reason == "" {
		return errs.Validation("dispute_reason_required", "a dispute reason is required")
	}
	if _, err := s.loadLineInScope(ctx, actor, lineID); err != nil {
		return err
	}

	now := time.Now()
	return platform.WithDeadline(ctx, platform.DatabaseDeadline, func(dctx context.Context) error {
		return s.db.WithContext(dctx).Transaction(func(tx *gorm.DB) error {
			issue := domain.SOAIssue{
				ID:          uuid.New(),
				LineID:      lineID,
				Type:        domain.IssueOther,
				Description: reason,
				Status:      domain.IssueOpen,
				CreatedAt:   now,
			}
			if err := tx.Create(&issue).Error; err != nil {
				return errs.Wrap(errs.KindInternal, "soa_issue_create_failed", "could not open dispute", err)
			}
			return tx.Model(&domain.SOALine{}).Where("id = ?", lineID).Update("status", domain.LineDiscrepancy).Error
		})
	})
}

// ResolveIssue closes an issue and carries its owning line out of
// discrepancy, §4.6 "resolve_issue" (internal-only). ignore distinguishes the
// issue's disposition: false moves the line to LineResolved (the
// discrepancy was investigated and accepted as a match), true moves it to
// LineIgnored (the line is being written off, e.g. a duplicate statement
// entry). Both the issue and the line are updated in the same transaction so
// SignOff's gate (actions.go, SignOff) never sees a resolved issue sitting
// on a line still stuck in LineDiscrepancy.
func (s *Service) ResolveIssue(ctx context.Context, actor identity.Actor, issueID uuid.UUID, note string, ignore bool) error {
	if actor.Role() != domain.RoleInternal {
		return errs.Authz("internal_only", "only internal staff may resolve SOA issues")
	}
	if _, err := s.loadIssueInScope(ctx, actor, issueID); err != nil {
		return err
	}
	now := time.Now()
	lineStatus := domain.LineResolved
	if ignore {
		lineStatus = domain.LineIgnored
	}
	_ = note // not persisted: neither the issue row nor any message records it

	return platform.WithDeadline(ctx, platform.DatabaseDeadline, func(dctx context.Context) error {
		return s.db.WithContext(dctx).Transaction(func(tx *gorm.DB) error {
			var issue domain.SOAIssue
			if err := tx.First(&issue, "id = ?", issueID).Error; err != nil {
				return errs.NotFound("soa_issue_not_found", "issue not found")
			}

			res := tx.Model(&domain.SOAIssue{}).Where("id = ?", issueID).Updates(map[string]interface{}{
				"status":           domain.IssueResolved,
				"resolver_user_id": actor.UserID,
				"resolved_at":      now,
			})
			if res.Error != nil {
				return errs.Wrap(errs.KindInternal, "soa_issue_resolve_failed", "could not resolve issue", res.Error)
			}

			return tx.Model(&domain.SOALine{}).Where("id = ?", issue.LineID).Update("status", lineStatus).Error
		})
	})
}

// UploadLineEvidence attaches supporting evidence to a line's case via the
// Evidence Vault, §4.6 "upload_line_evidence".
func (s *Service) UploadLineEvidence(ctx context.Context, actor identity.Actor, lineID uuid.UUID, filename, mimeType string, data []byte) (*domain.Evidence, error) {
	line, err := s.loadLineInScope(ctx, actor, lineID)
	if err != nil {
		return nil, err
	}
	return s.evidence.Upload(ctx, actor, evidence.UploadInput{
		CaseID:       line.CaseID,
		EvidenceType: domain.EvidenceReconciliation,
		Filename:     filename,
		MimeType:     mimeType,
		Data:         data,
	})
}

// SignOff closes out a SOA case once every line and issue is settled,
// §4.6 "Sign-off gate".
func (s *Service) SignOff(ctx context.Context, actor identity.Actor, caseID uuid.UUID) (*domain.Case, error) {
	if actor.Role() != domain.RoleInternal {
		return nil, errs.Authz("internal_only", "only internal staff may sign off a statement")
	}

	var lines []domain.SOALine
	if err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at asc").Find(&lines).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "soa_lines_load_failed", "could not load lines", err)
	}
	for _, l := range lines {
		if l.Status == domain.LineExtracted || l.Status == domain.LineDiscrepancy {
			return nil, errs.Conflict("soa_signoff_blocked", fmt.Sprintf("line %s is not matched, resolved, or ignored", l.ID))
		}
	}

	var openIssues int64
	err := s.db.WithContext(ctx).Model(&domain.SOAIssue{}).
		Joins("JOIN soa_lines ON soa_lines.id = soa_issues.line_id").
		Where("soa_lines.case_id = ? AND soa_issues.status = ?", caseID, domain.IssueOpen).
		Count(&openIssues).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "soa_issue_count_failed", "could not check open issues", err)
	}
	if openIssues > 0 {
		return nil, errs.Conflict("soa_signoff_blocked", "one or more issues remain open")
	}

	netVariance, err := s.netVariance(ctx, caseID)
	if err != nil {
		return nil, err
	}

	c, err := s.cases.TransitionStatus(ctx, actor, caseID, domain.StatusResolved)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Statement signed off by %s; net variance %d cents", actor.UserID, netVariance)
	s.writeSignoffMessage(ctx, caseID, body)
	return c, nil
}

func (s *Service) netVariance(ctx context.Context, caseID uuid.UUID) (int64, error) {
	var matches []domain.SOAMatch
	err := s.db.WithContext(ctx).
		Joins("JOIN soa_lines ON soa_lines.id = soa_matches.line_id").
		Where("soa_lines.case_id = ?", caseID).
		Find(&matches).Error
	if err != nil {
		return 0, errs.Wrap(errs.KindInternal, "soa_match_load_failed", "could not load matches", err)
	}
	var total int64
	for _, m := range matches {
		total += m.AmountDeltaCents
	}
	return total, nil
}

func (s *Service) writeSignoffMessage(ctx context.Context, caseID uuid.UUID, body string) {
	msg := domain.Message{
		ID:          uuid.New(),
		CaseID:      caseID,
		SenderParty: domain.PartySystem,
		Channel:     domain.ChannelSystem,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	_ = s.db.WithContext(ctx).Create(&msg).Error
}
