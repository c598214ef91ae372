package caseregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func TestAllowedTransitionOpenCase(t *testing.T) {
	allowed := []domain.CaseStatus{
		domain.StatusWaitingSupplier, domain.StatusWaitingInternal,
		domain.StatusBlocked, domain.StatusCancelled,
	}
	for _, to := range allowed {
		assert.True(t, allowedTransition(domain.StatusOpen, to), "open -> %s should be allowed", to)
	}
	assert.False(t, allowedTransition(domain.StatusOpen, domain.StatusResolved),
		"open -> resolved must never be a direct transition, §4.1")
	assert.False(t, allowedTransition(domain.StatusOpen, domain.StatusRejected))
}

func TestAllowedTransitionWaitingStates(t *testing.T) {
	assert.True(t, allowedTransition(domain.StatusWaitingSupplier, domain.StatusWaitingInternal))
	assert.True(t, allowedTransition(domain.StatusWaitingSupplier, domain.StatusResolved))
	assert.True(t, allowedTransition(domain.StatusWaitingSupplier, domain.StatusRejected))
	assert.True(t, allowedTransition(domain.StatusWaitingSupplier, domain.StatusBlocked))
	assert.False(t, allowedTransition(domain.StatusWaitingSupplier, domain.StatusOpen))

	assert.True(t, allowedTransition(domain.StatusWaitingInternal, domain.StatusWaitingSupplier))
	assert.True(t, allowedTransition(domain.StatusWaitingInternal, domain.StatusResolved))
}

func TestAllowedTransitionTerminalStatesHaveNoEgress(t *testing.T) {
	assert.False(t, allowedTransition(domain.StatusResolved, domain.StatusOpen))
	assert.False(t, allowedTransition(domain.StatusResolved, domain.StatusWaitingInternal))
	assert.False(t, allowedTransition(domain.StatusCancelled, domain.StatusOpen))
}

func TestAllowedTransitionRejectedOnlyReopensToWaitingSupplier(t *testing.T) {
	assert.True(t, allowedTransition(domain.StatusRejected, domain.StatusWaitingSupplier))
	assert.False(t, allowedTransition(domain.StatusRejected, domain.StatusWaitingInternal))
	assert.False(t, allowedTransition(domain.StatusRejected, domain.StatusResolved))
}

func TestAllowedTransitionBlockedReturnsToEitherWaitingState(t *testing.T) {
	assert.True(t, allowedTransition(domain.StatusBlocked, domain.StatusWaitingInternal))
	assert.True(t, allowedTransition(domain.StatusBlocked, domain.StatusWaitingSupplier))
	assert.False(t, allowedTransition(domain.StatusBlocked, domain.StatusResolved))
}

func TestDefaultOwnerTeamByCaseType(t *testing.T) {
	assert.Equal(t, domain.TeamProcurement, defaultOwnerTeam(domain.CaseOnboarding))
	assert.Equal(t, domain.TeamAP, defaultOwnerTeam(domain.CaseInvoice))
	assert.Equal(t, domain.TeamAP, defaultOwnerTeam(domain.CasePayment))
	assert.Equal(t, domain.TeamAP, defaultOwnerTeam(domain.CaseSOA))
	assert.Equal(t, domain.TeamNone, defaultOwnerTeam(domain.CaseGeneral))
	assert.Equal(t, domain.TeamNone, defaultOwnerTeam(domain.CaseContract))
}
