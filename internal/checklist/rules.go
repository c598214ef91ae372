// Package checklist computes the required evidence steps for a case and
// keeps their status consistent with the evidence vault. The rule set is
// the single, table-driven function §9 REDESIGN FLAGS calls for, replacing
// the teacher's string-typed branching scattered across templates/adapters.
package checklist

import "vendorops.io/vmp/internal/domain"

// step is an (evidence type, human label) pair produced by the rule set
// before materialization assigns ids.
type step struct {
	evidenceType domain.EvidenceType
	label        string
}

var euVATCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true, "DE": true,
	"DK": true, "EE": true, "ES": true, "FI": true, "FR": true, "GR": true,
	"HR": true, "HU": true, "IE": true, "IT": true, "LT": true, "LU": true,
	"LV": true, "MT": true, "NL": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true, "GB": true,
}

// RuleInputs is every conditional the rule set in §4.3 consults.
type RuleInputs struct {
	CaseType          domain.CaseType
	VendorCountry     string
	VendorType        domain.VendorType
	BankDetailsChange bool // payment-case metadata flag
}

// RequiredSteps is the single table-driven rule function of §4.3. It is a
// pure function: identical inputs always produce an identical, ordered set
// of steps, which is what makes §8's idempotent-materialization invariant
// hold.
func RequiredSteps(in RuleInputs) []step {
	switch in.CaseType {
	case domain.CaseInvoice:
		return []step{
			{domain.EvidenceInvoicePDF, "Invoice PDF"},
			{domain.EvidencePONumber, "Purchase order number"},
			{domain.EvidenceGRN, "Goods receipt note"},
		}

	case domain.CasePayment:
		steps := []step{
			{domain.EvidenceRemittance, "Remittance advice"},
			{domain.EvidenceBankStatement, "Bank statement"},
		}
		if in.BankDetailsChange {
			steps = append(steps, step{domain.EvidenceBankLetter, "Bank letter"})
		}
		return steps

	case domain.CaseSOA:
		return []step{
			{domain.EvidenceSOADocument, "Statement of account"},
			{domain.EvidenceReconciliation, "Reconciliation notes"},
		}

	case domain.CaseOnboarding:
		steps := []step{
			{domain.EvidenceBankLetter, "Bank letter"},
			{domain.EvidenceTaxID, "Tax identification"},
		}
		if in.VendorType != domain.VendorIndividual {
			steps = append(steps, step{domain.EvidenceCompanyRegistration, "Company registration"})
		}
		if in.VendorCountry == "US" {
			steps = append(steps,
				step{domain.EvidenceEINCertificate, "EIN certificate"},
				step{domain.EvidenceW9Form, "W-9 form"},
			)
		}
		if euVATCountries[in.VendorCountry] {
			steps = append(steps, step{domain.EvidenceVATCertificate, "VAT certificate"})
		}
		if in.VendorCountry == "MY" {
			steps = append(steps, step{domain.EvidenceTaxCertificate, "GST tax certificate"})
		}
		if in.VendorType == domain.VendorInternational {
			steps = append(steps,
				step{domain.EvidenceTradeLicense, "Trade license"},
				step{domain.EvidenceImportExportPermit, "Import/export permit"},
			)
		}
		return steps

	case domain.CaseGeneral:
		return []step{
			{domain.EvidenceSupportingDocs, "Supporting documentation"},
		}

	case domain.CaseContract:
		return []step{
			{domain.EvidenceSupportingDocs, "Contract documentation"},
		}

	default:
		return nil
	}
}
