package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func TestToggledStatusHandsBackToOtherParty(t *testing.T) {
	assert.Equal(t, domain.StatusWaitingInternal,
		toggledStatus(domain.StatusWaitingSupplier, domain.RoleSupplier))
	assert.Equal(t, domain.StatusWaitingSupplier,
		toggledStatus(domain.StatusWaitingInternal, domain.RoleInternal))
}

func TestToggledStatusNeverFiresWhenReplyingPartyIsNotTheOneWaitedOn(t *testing.T) {
	assert.Equal(t, domain.CaseStatus(""),
		toggledStatus(domain.StatusWaitingSupplier, domain.RoleInternal))
	assert.Equal(t, domain.CaseStatus(""),
		toggledStatus(domain.StatusWaitingInternal, domain.RoleSupplier))
}

func TestToggledStatusNeverFiresOutsideWaitingStates(t *testing.T) {
	assert.Equal(t, domain.CaseStatus(""), toggledStatus(domain.StatusOpen, domain.RoleSupplier))
	assert.Equal(t, domain.CaseStatus(""), toggledStatus(domain.StatusResolved, domain.RoleInternal))
	assert.Equal(t, domain.CaseStatus(""), toggledStatus(domain.StatusBlocked, domain.RoleSupplier))
}
