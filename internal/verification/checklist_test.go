package verification

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func doc(docType documents.DocumentType, status documents.DocumentStatus, uploadedAt time.Time, expiry *time.Time) documents.Document {
	return documents.Document{
		ID:         uuid.New(),
		OrgID:      uuid.New(),
		Type:       docType,
		Status:     status,
		UploadedAt: uploadedAt,
		ExpiryDate: expiry,
	}
}

func findItem(t *testing.T, items []ChecklistItem, docType documents.DocumentType) ChecklistItem {
	t.Helper()
	for _, item := range items {
		if item.DocType == docType {
			return item
		}
	}
	t.Fatalf("no checklist item for %s", docType)
	return ChecklistItem{}
}

func TestDeriveChecklistMissing(t *testing.T) {
	items := DeriveChecklist(DefaultChecklist(), nil, testNow)

	require.Len(t, items, len(DefaultChecklist()))
	for _, item := range items {
		assert.Equal(t, ItemMissing, item.DerivedStatus)
		assert.Empty(t, item.LinkedDocuments)
	}
}

func TestDeriveChecklistPassesDriverStatusThrough(t *testing.T) {
	cases := []struct {
		status documents.DocumentStatus
		want   ItemStatus
	}{
		{documents.StatusUploaded, ItemUploaded},
		{documents.StatusUnderReview, ItemUnderReview},
		{documents.StatusAccepted, ItemAccepted},
	}

	for _, tc := range cases {
		docs := []documents.Document{
			doc(documents.TypeTaxExemption, tc.status, testNow.Add(-time.Hour), nil),
		}
		items := DeriveChecklist(DefaultChecklist(), docs, testNow)
		assert.Equal(t, tc.want, findItem(t, items, documents.TypeTaxExemption).DerivedStatus)
	}
}

func TestDeriveChecklistExpiryOverridesAccepted(t *testing.T) {
	expired := testNow.Add(-24 * time.Hour)
	docs := []documents.Document{
		doc(documents.TypeAuditedFinancials, documents.StatusAccepted, testNow.Add(-time.Hour), &expired),
	}

	items := DeriveChecklist(DefaultChecklist(), docs, testNow)

	assert.Equal(t, ItemExpired, findItem(t, items, documents.TypeAuditedFinancials).DerivedStatus)
}

func TestDeriveChecklistRejectedCountsAsMissing(t *testing.T) {
	docs := []documents.Document{
		doc(documents.TypeBoardResolution, documents.StatusRejected, testNow.Add(-time.Hour), nil),
	}

	items := DeriveChecklist(DefaultChecklist(), docs, testNow)

	item := findItem(t, items, documents.TypeBoardResolution)
	assert.Equal(t, ItemMissing, item.DerivedStatus)
	// The rejected document stays visible even though it does not count.
	assert.Len(t, item.LinkedDocuments, 1)
}

func TestDeriveChecklistMostRecentWins(t *testing.T) {
	docs := []documents.Document{
		doc(documents.TypeBankStatement, documents.StatusAccepted, testNow.Add(-72*time.Hour), nil),
		doc(documents.TypeBankStatement, documents.StatusUnderReview, testNow.Add(-time.Hour), nil),
	}

	items := DeriveChecklist(DefaultChecklist(), docs, testNow)

	item := findItem(t, items, documents.TypeBankStatement)
	assert.Equal(t, ItemUnderReview, item.DerivedStatus)
	assert.Len(t, item.LinkedDocuments, 2)
}

func TestDeriveChecklistOrderIndependentAndIdempotent(t *testing.T) {
	expired := testNow.Add(-time.Hour)
	docs := []documents.Document{
		doc(documents.TypeRegistrationCertificate, documents.StatusAccepted, testNow.Add(-96*time.Hour), nil),
		doc(documents.TypeRegistrationCertificate, documents.StatusUploaded, testNow.Add(-time.Hour), nil),
		doc(documents.TypeTaxExemption, documents.StatusAccepted, testNow.Add(-48*time.Hour), &expired),
		doc(documents.TypeBoardResolution, documents.StatusRejected, testNow.Add(-24*time.Hour), nil),
		doc(documents.TypeBankStatement, documents.StatusUnderReview, testNow.Add(-12*time.Hour), nil),
	}

	baseline := DeriveChecklist(DefaultChecklist(), docs, testNow)
	assert.Equal(t, baseline, DeriveChecklist(DefaultChecklist(), docs, testNow))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]documents.Document(nil), docs...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := DeriveChecklist(DefaultChecklist(), shuffled, testNow)
		require.Len(t, got, len(baseline))
		for j := range baseline {
			assert.Equal(t, baseline[j].DerivedStatus, got[j].DerivedStatus)
			assert.Len(t, got[j].LinkedDocuments, len(baseline[j].LinkedDocuments))
		}
	}
}
