package verification

import (
	"fmt"
	"strings"
)

// GateResult says whether a verification request may be submitted and, when
// it may not, exactly which items block it. Labels are retained so the UI
// can present a concrete list rather than a bare boolean.
type GateResult struct {
	Allowed bool `json:"allowed"`
	// Missing holds required items with no usable document.
	Missing []ChecklistItem `json:"missing"`
	// Expired holds every expired item, required or not. An expired legal or
	// financial document is never acceptable evidence regardless of category
	// importance, so any expiry blocks submission.
	Expired []ChecklistItem `json:"expired"`
	// MissingOptional never blocks; it feeds the pre-submit warning.
	MissingOptional []ChecklistItem `json:"missing_optional"`
}

// EvaluateGate decides submission eligibility from derived checklist items.
func EvaluateGate(items []ChecklistItem) GateResult {
	var result GateResult
	for _, item := range items {
		switch {
		case item.DerivedStatus == ItemExpired:
			result.Expired = append(result.Expired, item)
		case item.DerivedStatus == ItemMissing && item.Required:
			result.Missing = append(result.Missing, item)
		case item.DerivedStatus == ItemMissing:
			result.MissingOptional = append(result.MissingOptional, item)
		}
	}
	result.Allowed = len(result.Missing) == 0 && len(result.Expired) == 0
	return result
}

// GateBlockedError surfaces the blocking reasons of a refused submission.
// It is a recoverable validation failure, not an internal error.
type GateBlockedError struct {
	Missing []string `json:"missing"`
	Expired []string `json:"expired"`
}

func (e *GateBlockedError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required documents: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Expired) > 0 {
		parts = append(parts, fmt.Sprintf("expired documents: %s", strings.Join(e.Expired, ", ")))
	}
	if len(parts) == 0 {
		return "submission blocked"
	}
	return "submission blocked: " + strings.Join(parts, "; ")
}

func newGateBlockedError(result GateResult) *GateBlockedError {
	blocked := &GateBlockedError{}
	for _, item := range result.Missing {
		blocked.Missing = append(blocked.Missing, item.Label)
	}
	for _, item := range result.Expired {
		blocked.Expired = append(blocked.Expired, item.Label)
	}
	return blocked
}
