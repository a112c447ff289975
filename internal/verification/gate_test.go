package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

func item(docType documents.DocumentType, label string, required bool, status ItemStatus) ChecklistItem {
	return ChecklistItem{DocType: docType, Label: label, Required: required, DerivedStatus: status}
}

func TestGateBlocksMissingRequired(t *testing.T) {
	items := []ChecklistItem{
		item(documents.TypeRegistrationCertificate, "Registration Certificate", true, ItemAccepted),
		item(documents.TypeTaxExemption, "Tax Exemption Certificate", true, ItemMissing),
	}

	result := EvaluateGate(items)

	assert.False(t, result.Allowed)
	assert.Len(t, result.Missing, 1)
	assert.Equal(t, "Tax Exemption Certificate", result.Missing[0].Label)
	assert.Empty(t, result.Expired)
}

func TestGateBlocksExpiredOptional(t *testing.T) {
	// Expiry blocks even when the item is optional and all required items
	// are accepted.
	items := []ChecklistItem{
		item(documents.TypeRegistrationCertificate, "Registration Certificate", true, ItemAccepted),
		item(documents.TypeTaxExemption, "Tax Exemption Certificate", true, ItemAccepted),
		item(documents.TypeProgramLicense, "Program License", false, ItemExpired),
	}

	result := EvaluateGate(items)

	assert.False(t, result.Allowed)
	assert.Empty(t, result.Missing)
	assert.Len(t, result.Expired, 1)
	assert.Equal(t, "Program License", result.Expired[0].Label)
}

func TestGateAllowsMissingOptional(t *testing.T) {
	items := []ChecklistItem{
		item(documents.TypeRegistrationCertificate, "Registration Certificate", true, ItemUploaded),
		item(documents.TypeTaxExemption, "Tax Exemption Certificate", true, ItemAccepted),
		item(documents.TypeAnnualReport, "Annual Report", false, ItemMissing),
	}

	result := EvaluateGate(items)

	assert.True(t, result.Allowed)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Expired)
	// Missing optional items feed the warning, never the block.
	assert.Len(t, result.MissingOptional, 1)
}

func TestGateUnderReviewDoesNotBlock(t *testing.T) {
	items := []ChecklistItem{
		item(documents.TypeRegistrationCertificate, "Registration Certificate", true, ItemUnderReview),
	}

	assert.True(t, EvaluateGate(items).Allowed)
}

func TestGateBlockedErrorMessage(t *testing.T) {
	result := EvaluateGate([]ChecklistItem{
		item(documents.TypeTaxExemption, "Tax Exemption Certificate", true, ItemMissing),
		item(documents.TypeBankStatement, "Bank Statement", true, ItemExpired),
	})

	err := newGateBlockedError(result)
	assert.Contains(t, err.Error(), "Tax Exemption Certificate")
	assert.Contains(t, err.Error(), "Bank Statement")
}
