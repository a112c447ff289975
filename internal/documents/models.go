package documents

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusUploaded    DocumentStatus = "uploaded"
	StatusUnderReview DocumentStatus = "under_review"
	StatusAccepted    DocumentStatus = "accepted"
	StatusRejected    DocumentStatus = "rejected"
	StatusExpired     DocumentStatus = "expired"
)

type DocumentType string

const (
	TypeRegistrationCertificate DocumentType = "registration_certificate"
	TypeTaxExemption            DocumentType = "tax_exemption"
	TypeAuditedFinancials       DocumentType = "audited_financials"
	TypeBoardResolution         DocumentType = "board_resolution"
	TypeAnnualReport            DocumentType = "annual_report"
	TypeBankStatement           DocumentType = "bank_statement"
	TypeProgramLicense          DocumentType = "program_license"
	TypeGovernancePolicy        DocumentType = "governance_policy"
	TypeOther                   DocumentType = "other"
)

// KnownDocumentTypes lists the named categories an organization can be asked
// to provide. TypeOther is a catch-all and intentionally excluded.
func KnownDocumentTypes() []DocumentType {
	return []DocumentType{
		TypeRegistrationCertificate,
		TypeTaxExemption,
		TypeAuditedFinancials,
		TypeBoardResolution,
		TypeAnnualReport,
		TypeBankStatement,
		TypeProgramLicense,
		TypeGovernancePolicy,
	}
}

// Document is one file an organization has uploaded toward its verification
// checklist. Created on upload, mutated on re-upload or metadata edit.
type Document struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	OrgID      uuid.UUID      `json:"org_id" db:"org_id"`
	Name       string         `json:"name" db:"name"`
	Type       DocumentType   `json:"document_type" db:"document_type"`
	FileSize   int64          `json:"file_size" db:"file_size"`
	S3Key      string         `json:"s3_key" db:"s3_key"`
	S3Bucket   string         `json:"s3_bucket" db:"s3_bucket"`
	Status     DocumentStatus `json:"status" db:"status"`
	UploadedAt time.Time      `json:"uploaded_at" db:"uploaded_at"`
	IssuedAt   *time.Time     `json:"issued_at,omitempty" db:"issued_at"`
	ExpiryDate *time.Time     `json:"expiry_date,omitempty" db:"expiry_date"`
}

// ExpiredAt reports whether the document's expiry date has passed as of the
// given instant. Documents without an expiry date never expire.
func (d Document) ExpiredAt(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}
