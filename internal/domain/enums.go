package domain

// Enum-like fields are string-backed types (VendorType, CaseType and
// CaseStatus carry a Valid() check; there are no constructors) with
// exhaustive handling at every transition site, per SPEC_FULL.md §3
// ("Persistence mapping") replacing the teacher's string-compare dispatch.

// VendorType enumerates §3 Vendor.vendor_type.
type VendorType string

const (
	VendorIndividual    VendorType = "individual"
	VendorCorporate     VendorType = "corporate"
	VendorInternational VendorType = "international"
	VendorDomestic      VendorType = "domestic"
)

func (v VendorType) Valid() bool {
	switch v {
	case VendorIndividual, VendorCorporate, VendorInternational, VendorDomestic:
		return true
	}
	return false
}

// CaseType enumerates §3 Case.case_type.
type CaseType string

const (
	CaseOnboarding CaseType = "onboarding"
	CaseInvoice    CaseType = "invoice"
	CasePayment    CaseType = "payment"
	CaseSOA        CaseType = "soa"
	CaseContract   CaseType = "contract"
	CaseGeneral    CaseType = "general"
)

func (c CaseType) Valid() bool {
	switch c {
	case CaseOnboarding, CaseInvoice, CasePayment, CaseSOA, CaseContract, CaseGeneral:
		return true
	}
	return false
}

// CaseStatus enumerates §4.1's status machine states.
type CaseStatus string

const (
	StatusOpen             CaseStatus = "open"
	StatusWaitingSupplier  CaseStatus = "waiting_supplier"
	StatusWaitingInternal  CaseStatus = "waiting_internal"
	StatusResolved         CaseStatus = "resolved"
	StatusRejected         CaseStatus = "rejected"
	StatusBlocked          CaseStatus = "blocked"
	StatusCancelled        CaseStatus = "cancelled"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusWaitingSupplier, StatusWaitingInternal, StatusResolved, StatusRejected, StatusBlocked, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed, §4.1.
func (s CaseStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// OwnerTeam enumerates §3 Case.owner_team.
type OwnerTeam string

const (
	TeamProcurement OwnerTeam = "procurement"
	TeamAP          OwnerTeam = "AP"
	TeamFinance     OwnerTeam = "finance"
	TeamNone        OwnerTeam = "none"
)

// SenderParty enumerates §3 Message.sender_party.
type SenderParty string

const (
	PartyVendor   SenderParty = "vendor"
	PartyInternal SenderParty = "internal"
	PartyAI       SenderParty = "ai"
	PartySystem   SenderParty = "system"
)

// ChannelSource enumerates §3 Message.channel_source.
type ChannelSource string

const (
	ChannelPortal   ChannelSource = "portal"
	ChannelEmail    ChannelSource = "email"
	ChannelWhatsApp ChannelSource = "whatsapp"
	ChannelSlack    ChannelSource = "slack"
	ChannelSystem   ChannelSource = "system"
)

// EvidenceType enumerates the symbolic evidence types named in §3/§4.3.
type EvidenceType string

const (
	EvidenceInvoicePDF           EvidenceType = "invoice_pdf"
	EvidencePONumber             EvidenceType = "po_number"
	EvidenceGRN                  EvidenceType = "grn"
	EvidenceBankLetter           EvidenceType = "bank_letter"
	EvidenceTaxID                EvidenceType = "tax_id"
	EvidenceVATCertificate       EvidenceType = "vat_certificate"
	EvidenceEINCertificate       EvidenceType = "ein_certificate"
	EvidenceW9Form               EvidenceType = "w9_form"
	EvidenceTradeLicense         EvidenceType = "trade_license"
	EvidenceImportExportPermit   EvidenceType = "import_export_permit"
	EvidenceRemittance           EvidenceType = "remittance"
	EvidenceBankStatement        EvidenceType = "bank_statement"
	EvidenceCompanyRegistration  EvidenceType = "company_registration"
	EvidenceSOADocument          EvidenceType = "soa_document"
	EvidenceReconciliation       EvidenceType = "reconciliation"
	EvidenceTaxCertificate       EvidenceType = "tax_certificate" // GST, §4.3 MY rule
	EvidenceSupportingDocs       EvidenceType = "supporting_documentation"
)

// ChecklistStatus enumerates §3 ChecklistStep.status.
type ChecklistStatus string

const (
	StepPending   ChecklistStatus = "pending"
	StepSubmitted ChecklistStatus = "submitted"
	StepVerified  ChecklistStatus = "verified"
	StepRejected  ChecklistStatus = "rejected"
	StepWaived    ChecklistStatus = "waived"
)

// InvoiceStatus enumerates §3 Invoice.status.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceMatched   InvoiceStatus = "matched"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceDisputed  InvoiceStatus = "disputed"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceSource enumerates §3 Invoice.source.
type InvoiceSource string

const (
	SourceManual InvoiceSource = "manual"
	SourceERP    InvoiceSource = "erp"
)

// SOALineStatus enumerates §3 SOA line status.
type SOALineStatus string

const (
	LineExtracted   SOALineStatus = "extracted"
	LineMatched     SOALineStatus = "matched"
	LineDiscrepancy SOALineStatus = "discrepancy"
	LineResolved    SOALineStatus = "resolved"
	LineIgnored     SOALineStatus = "ignored"
)

// MatchPass enumerates §4.6's three deterministic passes plus manual match.
type MatchPass string

const (
	PassA      MatchPass = "A"
	PassB      MatchPass = "B"
	PassC      MatchPass = "C"
	PassManual MatchPass = "manual"
)

// IssueType enumerates §3 SOAIssue.type.
type IssueType string

const (
	IssueUnmatched       IssueType = "unmatched"
	IssueAmountVariance  IssueType = "amount_variance"
	IssueDateVariance    IssueType = "date_variance"
	IssueDuplicate       IssueType = "duplicate"
	IssueMissingInvoice  IssueType = "missing_invoice"
	IssueOther           IssueType = "other"
)

// IssueStatus enumerates §3 SOAIssue.status.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
)

// Role is the set of permissions an actor carries, §4.1 "Authorization".
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleInternal Role = "internal"
)

// ToParty maps an actor's role to the sender party recorded on messages it authors.
func (r Role) ToParty() SenderParty {
	if r == RoleInternal {
		return PartyInternal
	}
	return PartyVendor
}

// SLAPosture is the discrete SLA state derived from due timestamp, §4.1.
type SLAPosture string

const (
	PostureOnTrack    SLAPosture = "on_track"
	PostureApproaching SLAPosture = "approaching"
	PostureDueToday   SLAPosture = "due_today"
	PostureOverdue    SLAPosture = "overdue"
)
