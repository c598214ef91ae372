package checklist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/platform/errs"
)

// Engine materializes checklist steps and reconciles their status against
// evidence events, then recommends a case status back to Case Registry —
// the "explicit reconciliation call" §9 REDESIGN FLAGS replaces the
// teacher's implicit evidence/checklist callback with.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine { return &Engine{db: db} }

// Materialize computes the required set for in and inserts any missing
// steps with status pending. It never removes or duplicates steps: calling
// it twice on the same case yields the same set (§8 idempotence).
func (e *Engine) Materialize(ctx context.Context, caseID uuid.UUID, in RuleInputs) error {
	required := RequiredSteps(in)

	var existing []domain.ChecklistStep
	if err := e.db.WithContext(ctx).Where("case_id = ?", caseID).Find(&existing).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "checklist_load_failed", "could not load checklist", err)
	}
	have := make(map[domain.EvidenceType]bool, len(existing))
	for _, s := range existing {
		have[s.EvidenceType] = true
	}

	now := time.Now()
	var toCreate []domain.ChecklistStep
	for _, r := range required {
		if have[r.evidenceType] {
			continue
		}
		toCreate = append(toCreate, domain.ChecklistStep{
			ID:           uuid.New(),
			CaseID:       caseID,
			Label:        r.label,
			EvidenceType: r.evidenceType,
			Status:       domain.StepPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if len(toCreate) == 0 {
		return nil
	}
	if err := e.db.WithContext(ctx).Create(&toCreate).Error; err != nil {
		return errs.Wrap(errs.KindInternal, "checklist_create_failed", "could not materialize checklist", err)
	}
	return nil
}

// List returns every checklist step for a case, §6 GET /cases/{id}/checklist.
// caseID is scoped to actor's tenant (and vendor, for supplier actors), the
// same scope caseregistry.Registry.load applies to a direct case lookup.
func (e *Engine) List(ctx context.Context, actor identity.Actor, caseID uuid.UUID) ([]domain.ChecklistStep, error) {
	caseQ := e.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", caseID, actor.TenantID)
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

	var steps []domain.ChecklistStep
	if err := e.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at asc").Find(&steps).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "checklist_load_failed", "could not load checklist", err)
	}
	return steps, nil
}

// StepForType finds the step matching an evidence type on a case, used by
// the Evidence Vault to locate the step an upload/verdict applies to.
func (e *Engine) StepForType(ctx context.Context, caseID uuid.UUID, evidenceType domain.EvidenceType) (*domain.ChecklistStep, error) {
	var step domain.ChecklistStep
	if err := e.db.WithContext(ctx).First(&step, "case_id = ? AND evidence_type = ?", caseID, evidenceType).Error; err != nil {
		return nil, errs.NotFound("checklist_step_not_found", "no checklist step for this evidence type")
	}
	return &step, nil
}

// MarkSubmitted records that a new evidence upload landed against step,
// per §4.3: any evidence (new upload) clears a prior rejection because it
// is, by construction, newer than whatever was rejected before it.
func (e *Engine) MarkSubmitted(ctx context.Context, stepID uuid.UUID) error {
	return e.setStatus(ctx, stepID, domain.StepSubmitted, nil)
}

// MarkVerified applies an internal verify verdict (§4.4 verify_evidence).
func (e *Engine) MarkVerified(ctx context.Context, stepID uuid.UUID) error {
	return e.setStatus(ctx, stepID, domain.StepVerified, nil)
}

// MarkRejected applies an internal reject verdict with reason (§4.4 reject_evidence).
func (e *Engine) MarkRejected(ctx context.Context, stepID uuid.UUID, reason string) error {
	return e.setStatus(ctx, stepID, domain.StepRejected, &reason)
}

// Waive sets a step to waived; sticky per §4.3 ("Waived is set only by
// explicit internal action and is sticky").
func (e *Engine) Waive(ctx context.Context, stepID uuid.UUID) error {
	return e.setStatus(ctx, stepID, domain.StepWaived, nil)
}

func (e *Engine) setStatus(ctx context.Context, stepID uuid.UUID, status domain.ChecklistStatus, reason *string) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if status == domain.StepRejected {
		updates["rejection_reason"] = *reason
	} else {
		updates["rejection_reason"] = nil
	}
	res := e.db.WithContext(ctx).Model(&domain.ChecklistStep{}).Where("id = ?", stepID).Updates(updates)
	if res.Error != nil {
		return errs.Wrap(errs.KindInternal, "checklist_update_failed", "could not update checklist step", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("checklist_step_not_found", "checklist step not found")
	}
	return nil
}

// Recommendation is the case-status suggestion §4.3's reconciliation rules
// produce; an empty string means "leave status unchanged".
type Recommendation = domain.CaseStatus

// Reconcile reads current step statuses for a case and returns the
// case-status recommendation Case Registry should apply, per §4.3:
//   - all non-waived steps verified => resolved
//   - any rejected step (with no newer submission, which MarkSubmitted
//     already guarantees by overwriting rejected) => waiting_supplier
//   - any submitted-but-unverified step => waiting_internal
//   - otherwise, unchanged
func (e *Engine) Reconcile(ctx context.Context, caseID uuid.UUID) (Recommendation, error) {
	var steps []domain.ChecklistStep
	if err := e.db.WithContext(ctx).Where("case_id = ?", caseID).Find(&steps).Error; err != nil {
		return "", errs.Wrap(errs.KindInternal, "checklist_load_failed", "could not load checklist", err)
	}
	if len(steps) == 0 {
		return "", nil
	}

	allVerifiedOrWaived := true
	anyRejected := false
	anySubmitted := false

	for _, s := range steps {
		switch s.Status {
		case domain.StepRejected:
			anyRejected = true
			allVerifiedOrWaived = false
		case domain.StepSubmitted:
			anySubmitted = true
			allVerifiedOrWaived = false
		case domain.StepPending:
			allVerifiedOrWaived = false
		}
	}

	switch {
	case allVerifiedOrWaived:
		return domain.StatusResolved, nil
	case anyRejected:
		return domain.StatusWaitingSupplier, nil
	case anySubmitted:
		return domain.StatusWaitingInternal, nil
	default:
		return "", nil
	}
}
