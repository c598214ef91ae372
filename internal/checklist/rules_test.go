package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func evidenceTypes(steps []step) []domain.EvidenceType {
	out := make([]domain.EvidenceType, len(steps))
	for i, s := range steps {
		out[i] = s.evidenceType
	}
	return out
}

func TestRequiredStepsInvoiceCase(t *testing.T) {
	steps := RequiredSteps(RuleInputs{CaseType: domain.CaseInvoice})

	assert.Equal(t, []domain.EvidenceType{
		domain.EvidenceInvoicePDF, domain.EvidencePONumber, domain.EvidenceGRN,
	}, evidenceTypes(steps))
}

func TestRequiredStepsPaymentCaseWithoutBankChange(t *testing.T) {
	steps := RequiredSteps(RuleInputs{CaseType: domain.CasePayment})

	assert.Equal(t, []domain.EvidenceType{
		domain.EvidenceRemittance, domain.EvidenceBankStatement,
	}, evidenceTypes(steps))
}

func TestRequiredStepsPaymentCaseWithBankChangeAddsBankLetter(t *testing.T) {
	steps := RequiredSteps(RuleInputs{CaseType: domain.CasePayment, BankDetailsChange: true})

	assert.Equal(t, []domain.EvidenceType{
		domain.EvidenceRemittance, domain.EvidenceBankStatement, domain.EvidenceBankLetter,
	}, evidenceTypes(steps))
}

func TestRequiredStepsSOACase(t *testing.T) {
	steps := RequiredSteps(RuleInputs{CaseType: domain.CaseSOA})

	assert.Equal(t, []domain.EvidenceType{
		domain.EvidenceSOADocument, domain.EvidenceReconciliation,
	}, evidenceTypes(steps))
}

func TestRequiredStepsOnboardingBaseline(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "ZZ",
		VendorType:    domain.VendorIndividual,
	})

	assert.Equal(t, []domain.EvidenceType{
		domain.EvidenceBankLetter, domain.EvidenceTaxID,
	}, evidenceTypes(steps), "individual vendors skip the company-registration step")
}

func TestRequiredStepsOnboardingCorporateAddsCompanyRegistration(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "ZZ",
		VendorType:    domain.VendorCorporate,
	})

	assert.Contains(t, evidenceTypes(steps), domain.EvidenceCompanyRegistration)
}

func TestRequiredStepsOnboardingUSAddsEINAndW9(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "US",
		VendorType:    domain.VendorCorporate,
	})

	types := evidenceTypes(steps)
	assert.Contains(t, types, domain.EvidenceEINCertificate)
	assert.Contains(t, types, domain.EvidenceW9Form)
	assert.NotContains(t, types, domain.EvidenceVATCertificate)
}

func TestRequiredStepsOnboardingEUAddsVATCertificate(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "DE",
		VendorType:    domain.VendorCorporate,
	})

	assert.Contains(t, evidenceTypes(steps), domain.EvidenceVATCertificate)
}

func TestRequiredStepsOnboardingMalaysiaAddsGSTCertificate(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "MY",
		VendorType:    domain.VendorCorporate,
	})

	assert.Contains(t, evidenceTypes(steps), domain.EvidenceTaxCertificate)
}

func TestRequiredStepsOnboardingInternationalAddsTradeDocuments(t *testing.T) {
	steps := RequiredSteps(RuleInputs{
		CaseType:      domain.CaseOnboarding,
		VendorCountry: "ZZ",
		VendorType:    domain.VendorInternational,
	})

	types := evidenceTypes(steps)
	assert.Contains(t, types, domain.EvidenceTradeLicense)
	assert.Contains(t, types, domain.EvidenceImportExportPermit)
}

func TestRequiredStepsGeneralAndContractCases(t *testing.T) {
	general := RequiredSteps(RuleInputs{CaseType: domain.CaseGeneral})
	contract := RequiredSteps(RuleInputs{CaseType: domain.CaseContract})

	assert.Equal(t, []domain.EvidenceType{domain.EvidenceSupportingDocs}, evidenceTypes(general))
	assert.Equal(t, []domain.EvidenceType{domain.EvidenceSupportingDocs}, evidenceTypes(contract))
}

func TestRequiredStepsIsPureAndDeterministic(t *testing.T) {
	in := RuleInputs{CaseType: domain.CaseOnboarding, VendorCountry: "FR", VendorType: domain.VendorInternational}

	first := RequiredSteps(in)
	second := RequiredSteps(in)

	assert.Equal(t, evidenceTypes(first), evidenceTypes(second))
}

func TestRequiredStepsUnknownCaseTypeReturnsNil(t *testing.T) {
	steps := RequiredSteps(RuleInputs{CaseType: domain.CaseType("unknown")})

	assert.Nil(t, steps)
}
