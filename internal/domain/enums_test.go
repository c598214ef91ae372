package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseStatusTerminal(t *testing.T) {
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusOpen.Terminal())
	assert.False(t, StatusWaitingSupplier.Terminal())
	assert.False(t, StatusBlocked.Terminal())
}

func TestCaseStatusValid(t *testing.T) {
	assert.True(t, StatusOpen.Valid())
	assert.False(t, CaseStatus("made_up").Valid())
}

func TestCaseTypeValid(t *testing.T) {
	assert.True(t, CaseInvoice.Valid())
	assert.False(t, CaseType("bogus").Valid())
}

func TestVendorTypeValid(t *testing.T) {
	assert.True(t, VendorCorporate.Valid())
	assert.False(t, VendorType("bogus").Valid())
}

func TestRoleToParty(t *testing.T) {
	assert.Equal(t, PartyInternal, RoleInternal.ToParty())
	assert.Equal(t, PartyVendor, RoleSupplier.ToParty())
}
