package caseregistry

import "vendorops.io/vmp/internal/domain"

// transitions is the status machine matrix of §4.1, consulted exhaustively
// by TransitionStatus. It is the single source of truth for what moves are
// legal; nothing outside this package decides that.
var transitions = map[domain.CaseStatus][]domain.CaseStatus{
	domain.StatusOpen: {
		domain.StatusWaitingSupplier, domain.StatusWaitingInternal,
		domain.StatusBlocked, domain.StatusCancelled,
	},
	domain.StatusWaitingSupplier: {
		domain.StatusWaitingInternal, domain.StatusResolved,
		domain.StatusRejected, domain.StatusBlocked,
	},
	domain.StatusWaitingInternal: {
		domain.StatusWaitingSupplier, domain.StatusResolved,
		domain.StatusRejected, domain.StatusBlocked,
	},
	domain.StatusResolved:  {},
	domain.StatusRejected:  {domain.StatusWaitingSupplier},
	domain.StatusBlocked:   {domain.StatusWaitingInternal, domain.StatusWaitingSupplier},
	domain.StatusCancelled: {},
}

// allowedTransition reports whether from -> to is a legal move.
func allowedTransition(from, to domain.CaseStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// defaultOwnerTeam assigns the owning team by case type on creation, §4.1.
func defaultOwnerTeam(t domain.CaseType) domain.OwnerTeam {
	switch t {
	case domain.CaseOnboarding:
		return domain.TeamProcurement
	case domain.CaseInvoice, domain.CasePayment, domain.CaseSOA:
		return domain.TeamAP
	default:
		return domain.TeamNone
	}
}
