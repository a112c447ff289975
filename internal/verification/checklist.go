package verification

import (
	"time"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

// DeriveChecklist computes the readiness state of each definition from the
// organization's current document set. It is pure: the same definitions,
// documents and instant always produce the same items, regardless of
// document order. The instant is a parameter so expiry checks stay
// deterministic under test.
//
// For each definition the most recently uploaded matching document drives
// the status:
//   - no matching document            -> missing
//   - driver past its expiry date    -> expired, whatever its own status
//   - driver rejected                -> missing (must be re-uploaded)
//   - otherwise                      -> the driver's own status
//
// Every matching document is attached to LinkedDocuments, not just the
// driver, so callers can show counts and history.
func DeriveChecklist(defs []ChecklistDefinition, docs []documents.Document, now time.Time) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(defs))
	for _, def := range defs {
		var matching []documents.Document
		for _, doc := range docs {
			if doc.Type == def.DocType {
				matching = append(matching, doc)
			}
		}

		item := ChecklistItem{
			DocType:         def.DocType,
			Label:           def.Label,
			Required:        def.Required,
			LinkedDocuments: matching,
		}
		item.DerivedStatus = deriveStatus(matching, now)
		items = append(items, item)
	}
	return items
}

func deriveStatus(matching []documents.Document, now time.Time) ItemStatus {
	driver := driverDocument(matching)
	if driver == nil {
		return ItemMissing
	}
	if driver.ExpiredAt(now) {
		return ItemExpired
	}
	switch driver.Status {
	case documents.StatusRejected:
		// A rejected document does not count as present.
		return ItemMissing
	case documents.StatusUnderReview:
		return ItemUnderReview
	case documents.StatusAccepted:
		return ItemAccepted
	case documents.StatusExpired:
		return ItemExpired
	default:
		return ItemUploaded
	}
}

// driverDocument picks the most recently uploaded document. Ties break on ID
// so the result does not depend on input order.
func driverDocument(matching []documents.Document) *documents.Document {
	var driver *documents.Document
	for i := range matching {
		doc := &matching[i]
		if driver == nil || doc.UploadedAt.After(driver.UploadedAt) {
			driver = doc
			continue
		}
		if doc.UploadedAt.Equal(driver.UploadedAt) && doc.ID.String() > driver.ID.String() {
			driver = doc
		}
	}
	return driver
}
