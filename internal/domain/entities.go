// Package domain holds the explicit record types for every persisted
// entity and response shape named in SPEC_FULL.md §3, replacing the
// teacher's runtime object-map idiom with structs GORM maps directly.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the root isolation unit; no operation crosses tenants, §8.
type Tenant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Company is a legal entity scoped to a tenant.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_company_tenant_name" json:"tenant_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_company_tenant_name" json:"name"`
	Country   string    `gorm:"size:2;not null" json:"country"` // ISO 3166-1 alpha-2
	CreatedAt time.Time `json:"created_at"`
}

// BankDetails is the embedded bank payload carried by Vendor and by a
// bank-change Case's metadata (§3 Vendor, §4.1 scenario 4).
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	SWIFT         string `json:"swift"`
}

// Vendor is the supplier master record.
type Vendor struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	DisplayName string     `gorm:"not null" json:"display_name"`
	VendorType  VendorType `gorm:"size:32;not null" json:"vendor_type"`
	Country     string     `gorm:"size:2;not null" json:"country"`

	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankName          string `json:"bank_name"`
	BankSWIFT         string `json:"bank_swift"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v Vendor) Bank() BankDetails {
	return BankDetails{
		AccountName:   v.BankAccountName,
		AccountNumber: v.BankAccountNumber,
		BankName:      v.BankName,
		SWIFT:         v.BankSWIFT,
	}
}

// VendorCompanyLink authorizes a vendor to submit documents for a company.
type VendorCompanyLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID  uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_vendor_company" json:"vendor_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_vendor_company" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an actor's durable identity.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Internal     bool       `json:"internal"` // true = internal ops, false = supplier
	Active       bool       `json:"active"`
	VendorID     *uuid.UUID `gorm:"type:uuid" json:"vendor_id,omitempty"` // non-null iff supplier
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session is an opaque server-side session row, §9 REDESIGN FLAGS
// ("cookie-session in-memory store" -> "relational session table").
type Session struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time              `json:"expires_at"`
	Data      map[string]interface{} `gorm:"serializer:json" json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Case is the central collaboration unit, §3/§4.1.
type Case struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID              `gorm:"type:uuid;index;not null" json:"tenant_id"`
	CompanyID        uuid.UUID              `gorm:"type:uuid;index;not null" json:"company_id"`
	VendorID         uuid.UUID              `gorm:"type:uuid;index;not null" json:"vendor_id"`
	CaseType         CaseType               `gorm:"size:32;not null" json:"case_type"`
	Subject          string                 `json:"subject"`
	Status           CaseStatus             `gorm:"size:32;not null;index" json:"status"`
	OwnerTeam        OwnerTeam              `gorm:"size:32" json:"owner_team"`
	AssignedUserID   *uuid.UUID             `gorm:"type:uuid" json:"assigned_user_id,omitempty"`
	SLADueAt         *time.Time             `json:"sla_due_at,omitempty"`
	LastPosture      SLAPosture             `gorm:"size:32" json:"-"` // SLA Ticker idempotence, §4.7
	EscalationLevel  int                    `gorm:"not null;default:0" json:"escalation_level"`
	Metadata         map[string]interface{} `gorm:"serializer:json" json:"metadata,omitempty"`
	LinkedInvoiceID  *uuid.UUID             `gorm:"type:uuid" json:"linked_invoice_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Message is an immutable thread entry, §3/§4.2.
type Message struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID       uuid.UUID   `gorm:"type:uuid;index:idx_message_case_created;not null" json:"case_id"`
	SenderUserID *uuid.UUID  `gorm:"type:uuid" json:"sender_user_id,omitempty"`
	SenderParty  SenderParty `gorm:"size:16;not null" json:"sender_party"`
	Channel      ChannelSource `gorm:"size:16;not null" json:"channel"`
	Body         string      `gorm:"not null" json:"body"`
	InternalNote bool        `gorm:"not null;default:false" json:"internal_note"`
	CreatedAt    time.Time   `gorm:"index:idx_message_case_created" json:"created_at"`
}

// ChecklistStep is one required evidence slot, §3/§4.3.
type ChecklistStep struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID           uuid.UUID       `gorm:"type:uuid;index;not null;uniqueIndex:idx_step_case_type" json:"case_id"`
	Label            string          `json:"label"`
	EvidenceType     EvidenceType    `gorm:"size:64;not null;uniqueIndex:idx_step_case_type" json:"required_evidence_type"`
	Status           ChecklistStatus `gorm:"size:16;not null" json:"status"`
	RejectionReason  *string         `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Evidence is a versioned file linked to a case, §3/§4.4.
type Evidence struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID          uuid.UUID    `gorm:"type:uuid;index;not null;uniqueIndex:idx_evidence_case_type_version" json:"case_id"`
	ChecklistStepID *uuid.UUID   `gorm:"type:uuid" json:"checklist_step_id,omitempty"`
	EvidenceType    EvidenceType `gorm:"size:64;not null;uniqueIndex:idx_evidence_case_type_version" json:"evidence_type"`
	Version         int          `gorm:"not null;uniqueIndex:idx_evidence_case_type_version" json:"version"`
	OriginalFilename string      `json:"original_filename"`
	MimeType        string       `json:"mime_type"`
	SizeBytes       int64        `json:"size_bytes"`
	StoragePath     string       `json:"storage_path"`
	SHA256          string       `json:"sha256"`
	UploaderUserID  *uuid.UUID   `gorm:"type:uuid" json:"uploader_user_id,omitempty"`
	UploaderParty   SenderParty  `gorm:"size:16" json:"uploader_party"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Invoice is the internal shadow-ledger record, §3/§4.6.
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"tenant_id"`
	CompanyID     uuid.UUID     `gorm:"type:uuid;index;not null;uniqueIndex:idx_invoice_vendor_company_number" json:"company_id"`
	VendorID      uuid.UUID     `gorm:"type:uuid;index;not null;uniqueIndex:idx_invoice_vendor_company_number" json:"vendor_id"`
	InvoiceNumber string        `gorm:"not null;uniqueIndex:idx_invoice_vendor_company_number" json:"invoice_number"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	Amount        int64         `json:"amount_cents"` // fixed-point, scale 2
	Currency      string        `gorm:"size:3" json:"currency"`
	PORef         *string       `json:"po_ref,omitempty"`
	GRNRef        *string       `json:"grn_ref,omitempty"`
	Status        InvoiceStatus `gorm:"size:16;not null" json:"status"`
	Source        InvoiceSource `gorm:"size:16;not null" json:"source"`
}

// SOALine is one parsed line of a vendor statement, §3.
type SOALine struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID       uuid.UUID     `gorm:"type:uuid;index;not null" json:"case_id"`
	DocumentNumber string      `json:"document_number"`
	DocumentDate time.Time     `json:"document_date"`
	Amount       int64         `json:"amount_cents"`
	Currency     string        `gorm:"size:3" json:"currency"`
	DocumentType string        `gorm:"size:8" json:"document_type"` // INV/CN/DN/PAY/WHT/ADJ/...
	Status       SOALineStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SOAMatch links a SOA line to an internal invoice, §3/§4.6.
type SOAMatch struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LineID     uuid.UUID `gorm:"type:uuid;index;not null" json:"line_id"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;index;not null" json:"invoice_id"`
	Pass       MatchPass `gorm:"size:8;not null" json:"match_pass"`
	IsExact    bool      `json:"is_exact"`
	AmountDeltaCents int64 `json:"amount_delta_cents"`
	DaysDelta  int       `json:"days_delta"`
	CreatedAt  time.Time `json:"created_at"`
}

// SOAIssue is a discrepancy raised against a line, §3/§4.6.
type SOAIssue struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	LineID       uuid.UUID   `gorm:"type:uuid;index;not null" json:"line_id"`
	Type         IssueType   `gorm:"size:32;not null" json:"type"`
	Description  string      `json:"description"`
	Status       IssueStatus `gorm:"size:16;not null" json:"status"`
	ResolverUserID *uuid.UUID `gorm:"type:uuid" json:"resolver_user_id,omitempty"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Notification is a row insertion consumed by an out-of-scope transport, §3/§4.7.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	CaseID    *uuid.UUID `gorm:"type:uuid" json:"case_id,omitempty"`
	Kind      string     `gorm:"size:64;not null" json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
