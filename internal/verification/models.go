package verification

import (
	"time"

	"github.com/google/uuid"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

// RequestStatus is the lifecycle state of a verification request.
type RequestStatus string

const (
	StatusUnverified RequestStatus = "unverified"
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusVerified   RequestStatus = "verified"
	StatusRejected   RequestStatus = "rejected"
)

// Action is what an actor did to a verification request.
type Action string

const (
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionComment   Action = "comment"
	ActionSiteVisit Action = "site_visit"
)

// ActorRole identifies who performed an action.
type ActorRole string

const (
	RoleOrgAdmin ActorRole = "org_admin"
	RoleOps      ActorRole = "ops"
	RoleSystem   ActorRole = "system"
)

// Request is one verification request. An organization has at most one
// active request at a time.
type Request struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	OrgID     uuid.UUID     `json:"org_id" db:"org_id"`
	Status    RequestStatus `json:"status" db:"status"`
	Notes     string        `json:"notes" db:"notes"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// AuditEvent is one immutable record of an action taken against a request.
// Events are append-only and never mutated or deleted.
type AuditEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID uuid.UUID `json:"request_id" db:"request_id"`
	Action    Action    `json:"action" db:"action"`
	ActorRole ActorRole `json:"actor_role" db:"actor_role"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ItemStatus is the derived status of one checklist item.
type ItemStatus string

const (
	ItemMissing     ItemStatus = "missing"
	ItemUploaded    ItemStatus = "uploaded"
	ItemUnderReview ItemStatus = "under_review"
	ItemAccepted    ItemStatus = "accepted"
	ItemExpired     ItemStatus = "expired"
)

// ChecklistDefinition names one document category tracked for verification
// readiness.
type ChecklistDefinition struct {
	DocType  documents.DocumentType `json:"doc_type"`
	Label    string                 `json:"label"`
	Required bool                   `json:"required"`
}

// ChecklistItem is the derived readiness state of one definition. It is
// always recomputed from the current document set, never stored.
type ChecklistItem struct {
	DocType         documents.DocumentType `json:"doc_type"`
	Label           string                 `json:"label"`
	Required        bool                   `json:"required"`
	DerivedStatus   ItemStatus             `json:"derived_status"`
	LinkedDocuments []documents.Document   `json:"linked_documents"`
}

// DefaultChecklist is the standard partner vetting checklist.
func DefaultChecklist() []ChecklistDefinition {
	return []ChecklistDefinition{
		{DocType: documents.TypeRegistrationCertificate, Label: "Registration Certificate", Required: true},
		{DocType: documents.TypeTaxExemption, Label: "Tax Exemption Certificate", Required: true},
		{DocType: documents.TypeAuditedFinancials, Label: "Audited Financial Statements", Required: true},
		{DocType: documents.TypeBoardResolution, Label: "Board Resolution", Required: true},
		{DocType: documents.TypeBankStatement, Label: "Bank Statement", Required: true},
		{DocType: documents.TypeAnnualReport, Label: "Annual Report", Required: false},
		{DocType: documents.TypeProgramLicense, Label: "Program License", Required: false},
		{DocType: documents.TypeGovernancePolicy, Label: "Governance Policy", Required: false},
	}
}
