// Package caseregistry implements the Case Collaboration Spine's central
// unit: case creation, the status state machine, reassignment, escalation,
// SLA computation, and the evidence-change callback, all per SPEC_FULL.md
// §4.1. Grounded on the teacher's repository pattern (db/repository/postgres.go,
// interfaces.go): a thin struct over *gorm.DB with one context-scoped
// method per operation.
package caseregistry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/checklist"
	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/config"
	"vendorops.io/vmp/internal/platform/errs"
	"vendorops.io/vmp/internal/tenant"
)

type Registry struct {
	db        *gorm.DB
	checklist *checklist.Engine
	tenants   *tenant.Store
	notifier  *notify.Service
	windows   config.SLAWindows
}

func NewRegistry(db *gorm.DB, checklistEngine *checklist.Engine, tenants *tenant.Store, notifier *notify.Service, windows config.SLAWindows) *Registry {
	return &Registry{db: db, checklist: checklistEngine, tenants: tenants, notifier: notifier, windows: windows}
}

func (r *Registry) slaWindow(t domain.CaseType) time.Duration {
	switch t {
	case domain.CaseOnboarding:
		return r.windows.Onboarding
	case domain.CaseInvoice:
		return r.windows.Invoice
	case domain.CasePayment:
		return r.windows.Payment
	case domain.CaseSOA:
		return r.windows.SOA
	default:
		return r.windows.Other
	}
}

// CreateCaseInput is every input to the create-case operation, §4.1.
type CreateCaseInput struct {
	CompanyID       uuid.UUID
	VendorID        uuid.UUID
	CaseType        domain.CaseType
	Subject         string
	Metadata        map[string]interface{}
	LinkedInvoiceID *uuid.UUID
}

// Create opens a new case after confirming the vendor–company link and the
// actor's tenant scope, then materializes the checklist and logs the
// "Case opened" system message.
func (r *Registry) Create(ctx context.Context, actor identity.Actor, in CreateCaseInput) (*domain.Case, error) {
	if !in.CaseType.Valid() {
		return nil, errs.Validation("invalid_case_type", "unrecognized case type")
	}
	if actor.Role() == domain.RoleSupplier && (actor.VendorID == nil || *actor.VendorID != in.VendorID) {
		return nil, errs.Authz("vendor_scope_violation", "supplier may only open cases for their own vendor")
	}

	vendor, err := r.tenants.Vendor(ctx, actor.TenantID, in.VendorID)
	if err != nil {
		return nil, err
	}
	if _, err := r.tenants.Company(ctx, actor.TenantID, in.CompanyID); err != nil {
		return nil, err
	}
	linked, err := r.tenants.Linked(ctx, in.VendorID, in.CompanyID)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "link_check_failed", "could not verify vendor-company link", err)
	}
	if !linked {
		return nil, errs.Validation("vendor_not_linked", "vendor is not linked to company")
	}

	now := time.Now()
	due := now.Add(r.slaWindow(in.CaseType))
	c := &domain.Case{
		ID:          uuid.New(),
		TenantID:    actor.TenantID,
		CompanyID:   in.CompanyID,
		VendorID:    in.VendorID,
		CaseType:    in.CaseType,
		Subject:     in.Subject,
		Status:      domain.StatusOpen,
		OwnerTeam:   defaultOwnerTeam(in.CaseType),
		SLADueAt:    &due,
		LastPosture: domain.PostureOnTrack,
		Metadata:    in.Metadata,
		LinkedInvoiceID: in.LinkedInvoiceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return errs.Wrap(errs.KindInternal, "case_create_failed", "could not create case", err)
		}
		msg := systemMessage(c.ID, fmt.Sprintf("Case opened by %s", actor.Role()))
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}

	bankChange, _ := in.Metadata["bank_details_change"].(bool)
	ruleIn := checklist.RuleInputs{
		CaseType:          in.CaseType,
		VendorCountry:     vendor.Country,
		VendorType:        vendor.VendorType,
		BankDetailsChange: bankChange,
	}
	if err := r.checklist.Materialize(ctx, c.ID, ruleIn); err != nil {
		return nil, err
	}

	return c, nil
}

func systemMessage(caseID uuid.UUID, body string) domain.Message {
	now := time.Now()
	return domain.Message{
		ID:          uuid.New(),
		CaseID:      caseID,
		SenderParty: domain.PartySystem,
		Channel:     domain.ChannelSystem,
		Body:        body,
		CreatedAt:   now,
	}
}

// ListFilter scopes Enumerate's result set, §4.1 "Enumerate cases".
type ListFilter struct {
	Status      domain.CaseStatus
	OwnerTeam   domain.OwnerTeam
	CaseType    domain.CaseType
	SLAPosture  domain.SLAPosture
	FreeText    string
}

// Enumerate lists cases visible to actor's scope, most recently updated first.
func (r *Registry) Enumerate(ctx context.Context, actor identity.Actor, f ListFilter) ([]domain.Case, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("vendor_id = ?", *actor.VendorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OwnerTeam != "" {
		q = q.Where("owner_team = ?", f.OwnerTeam)
	}
	if f.CaseType != "" {
		q = q.Where("case_type = ?", f.CaseType)
	}
	if f.FreeText != "" {
		q = q.Where("subject ILIKE ?", "%"+f.FreeText+"%")
	}

	var cases []domain.Case
	if err := q.Order("updated_at desc").Find(&cases).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "case_list_failed", "could not list cases", err)
	}
	if f.SLAPosture == "" {
		return cases, nil
	}
	now := time.Now()
	filtered := cases[:0]
	for _, c := range cases {
		if notify.Posture(now, c.SLADueAt) == f.SLAPosture {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// Detail is the get-case-detail response shape, §4.1.
type Detail struct {
	Case          domain.Case
	MessageCount  int64
	EvidenceCount int64
	OpenIssues    int64
	Posture       domain.SLAPosture
}

// Get returns a case plus its counts and derived SLA posture, scoped to actor.
func (r *Registry) Get(ctx context.Context, actor identity.Actor, caseID uuid.UUID) (*Detail, error) {
	c, err := r.load(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}

	var msgCount, evCount, issueCount int64
	r.db.WithContext(ctx).Model(&domain.Message{}).Where("case_id = ?", caseID).Count(&msgCount)
	r.db.WithContext(ctx).Model(&domain.Evidence{}).Where("case_id = ?", caseID).Count(&evCount)
	r.db.WithContext(ctx).Model(&domain.SOAIssue{}).
		Joins("JOIN soa_lines ON soa_lines.id = soa_issues.line_id").
		Where("soa_lines.case_id = ? AND soa_issues.status = ?", caseID, domain.IssueOpen).
		Count(&issueCount)

	return &Detail{
		Case:          *c,
		MessageCount:  msgCount,
		EvidenceCount: evCount,
		OpenIssues:    issueCount,
		Posture:       notify.Posture(time.Now(), c.SLADueAt),
	}, nil
}

// load fetches a case scoped to actor's tenant and (for suppliers) vendor.
func (r *Registry) load(ctx context.Context, actor identity.Actor, caseID uuid.UUID) (*domain.Case, error) {
	var c domain.Case
	q := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", caseID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&c).Error; err != nil {
		return nil, errs.NotFound("case_not_found", "case not found")
	}
	return &c, nil
}

// TransitionStatus validates and applies a status change, §4.1's matrix.
// At this layer suppliers may set either waiting state;
// resolved/rejected/blocked/cancelled are internal-only.
func (r *Registry) TransitionStatus(ctx context.Context, actor identity.Actor, caseID uuid.UUID, target domain.CaseStatus) (*domain.Case, error) {
	if !target.Valid() {
		return nil, errs.Validation("invalid_status", "unrecognized case status")
	}
	internalOnly := map[domain.CaseStatus]bool{
		domain.StatusResolved: true, domain.StatusRejected: true,
		domain.StatusBlocked: true, domain.StatusCancelled: true,
	}
	if internalOnly[target] && actor.Role() != domain.RoleInternal {
		return nil, errs.Authz("internal_only_transition", "only internal actors may set this status")
	}

	c, err := r.load(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	if !allowedTransition(c.Status, target) {
		return nil, errs.Conflict("invalid_transition", fmt.Sprintf("cannot transition from %s to %s", c.Status, target))
	}

	from := c.Status
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Case{}).Where("id = ?", caseID).
			Updates(map[string]interface{}{"status": target, "updated_at": time.Now()})
		if res.Error != nil {
			return errs.Wrap(errs.KindInternal, "case_update_failed", "could not update case status", res.Error)
		}
		msg := systemMessage(caseID, fmt.Sprintf("Status changed from %s to %s by %s", from, target, actor.Role()))
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}

	if target == domain.StatusResolved {
		if err := r.applyBankChangeIfPending(ctx, actor, c); err != nil {
			return nil, err
		}
	}

	c.Status = target
	return c, nil
}

// applyBankChangeIfPending implements the §9 open-question resolution:
// a bank-change case's vendor mutation happens inside the resolve
// transition, never as a separate internal action.
func (r *Registry) applyBankChangeIfPending(ctx context.Context, actor identity.Actor, c *domain.Case) error {
	if c.CaseType != domain.CasePayment {
		return nil
	}
	flag, _ := c.Metadata["bank_details_change"].(bool)
	if !flag {
		return nil
	}
	bank := domain.BankDetails{
		AccountName:   stringField(c.Metadata, "bank_account_name"),
		AccountNumber: stringField(c.Metadata, "bank_account_number"),
		BankName:      stringField(c.Metadata, "bank_name"),
		SWIFT:         stringField(c.Metadata, "bank_swift"),
	}
	return r.tenants.UpdateVendorBank(ctx, actor.TenantID, c.VendorID, bank)
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Reassign sets owner team and/or assigned user; internal-only, §4.1.
func (r *Registry) Reassign(ctx context.Context, actor identity.Actor, caseID uuid.UUID, team domain.OwnerTeam, assignee *uuid.UUID) (*domain.Case, error) {
	if actor.Role() != domain.RoleInternal {
		return nil, errs.Authz("internal_only", "only internal actors may reassign cases")
	}
	c, err := r.load(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if team != "" {
		updates["owner_team"] = team
	}
	if assignee != nil {
		updates["assigned_user_id"] = *assignee
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Case{}).Where("id = ?", caseID).Updates(updates).Error; err != nil {
			return errs.Wrap(errs.KindInternal, "case_reassign_failed", "could not reassign case", err)
		}
		msg := systemMessage(caseID, fmt.Sprintf("Reassigned by %s", actor.Role()))
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}
	if team != "" {
		c.OwnerTeam = team
	}
	c.AssignedUserID = assignee
	return c, nil
}

// Escalate sets an escalation level and its documented status side effects,
// §4.1: level 2 -> waiting_internal/AP; level 3 -> blocked + break-glass
// reveal. Suppliers may escalate their own cases; the reveal is the only
// information flow in the other direction.
func (r *Registry) Escalate(ctx context.Context, actor identity.Actor, caseID uuid.UUID, level int, reason, breakGlassContact string) (*domain.Case, string, error) {
	if level != 2 && level != 3 {
		return nil, "", errs.Validation("invalid_escalation_level", "escalation level must be 2 or 3")
	}
	c, err := r.load(ctx, actor, caseID)
	if err != nil {
		return nil, "", err
	}
	if c.Status.Terminal() {
		return nil, "", errs.Conflict("case_terminal", "cannot escalate a terminal case")
	}

	updates := map[string]interface{}{"escalation_level": level, "updated_at": time.Now()}
	revealed := ""
	switch level {
	case 2:
		updates["status"] = domain.StatusWaitingInternal
		updates["owner_team"] = domain.TeamAP
	case 3:
		updates["status"] = domain.StatusBlocked
		revealed = breakGlassContact
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Case{}).Where("id = ?", caseID).Updates(updates).Error; err != nil {
			return errs.Wrap(errs.KindInternal, "case_escalate_failed", "could not escalate case", err)
		}
		body := fmt.Sprintf("Escalated to level %d by %s: %s", level, actor.Role(), reason)
		msg := systemMessage(caseID, body)
		msg.SenderParty = actor.Role().ToParty()
		msg.InternalNote = true
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, "", err
	}

	if r.notifier != nil && c.AssignedUserID != nil {
		kind := notify.KindCaseEscalated
		title := fmt.Sprintf("Case escalated to level %d", level)
		_ = r.notifier.Emit(ctx, *c.AssignedUserID, &caseID, kind, title, reason)
	}

	c.EscalationLevel = level
	if level == 2 {
		c.Status = domain.StatusWaitingInternal
		c.OwnerTeam = domain.TeamAP
	} else {
		c.Status = domain.StatusBlocked
	}
	return c, revealed, nil
}

// ApplyEvidenceRecommendation applies the Checklist Engine's recommended
// status after an evidence event, the explicit reconciliation call of §9
// REDESIGN FLAGS. An empty recommendation means "leave status unchanged".
func (r *Registry) ApplyEvidenceRecommendation(ctx context.Context, caseID uuid.UUID, rec checklist.Recommendation) error {
	if rec == "" {
		return nil
	}
	var c domain.Case
	if err := r.db.WithContext(ctx).First(&c, "id = ?", caseID).Error; err != nil {
		return errs.NotFound("case_not_found", "case not found")
	}
	if c.Status == rec || c.Status.Terminal() {
		return nil
	}
	if !allowedTransition(c.Status, rec) {
		return nil // recommendation does not fit the current state; leave as is
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Case{}).Where("id = ?", caseID).
			Updates(map[string]interface{}{"status": rec, "updated_at": time.Now()}).Error; err != nil {
			return errs.Wrap(errs.KindInternal, "case_update_failed", "could not apply checklist recommendation", err)
		}
		label := "Case resolved"
		if rec != domain.StatusResolved {
			label = fmt.Sprintf("Status changed from %s to %s by evidence reconciliation", c.Status, rec)
		}
		msg := systemMessage(caseID, label)
		return tx.Create(&msg).Error
	})
}
