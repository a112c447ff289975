package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOutOfOrder is returned when an append would place an event before the
// last recorded event of the same request. Audit trails must reflect true
// submission order, so out-of-order inserts are rejected rather than
// silently reordered. Hitting this is an integration bug, not user error.
var ErrOutOfOrder = errors.New("audit event out of order")

// EventOrder selects timeline read direction.
type EventOrder string

const (
	OrderAsc  EventOrder = "asc"
	OrderDesc EventOrder = "desc"
)

// Progress stepper positions shown to partner organizations.
const (
	StepProfileCreated = iota + 1
	StepDocsSubmitted
	StepVettingRequested
	StepSiteVisit
	StepVerified
)

// StepLabels indexes stepper labels by position (1-based).
var StepLabels = map[int]string{
	StepProfileCreated:   "Profile Created",
	StepDocsSubmitted:    "Docs Submitted",
	StepVettingRequested: "Vetting Requested",
	StepSiteVisit:        "Site Visit",
	StepVerified:         "Verified",
}

// Timeline provides append-only, ordered access to the audit events of
// verification requests. Reads never mutate; appends enforce the monotonic
// time invariant per request.
type Timeline struct {
	repo Repository
}

func NewTimeline(repo Repository) *Timeline {
	return &Timeline{repo: repo}
}

// Append records one event. It fails with ErrOutOfOrder when the event's
// timestamp is earlier than the last event already recorded for the request.
func (t *Timeline) Append(ctx context.Context, event *AuditEvent) error {
	last, err := t.repo.LastEvent(ctx, event.RequestID)
	if err != nil {
		return err
	}
	if last != nil {
		if err := guardAppend(last.CreatedAt, event.CreatedAt); err != nil {
			return err
		}
	}
	return t.repo.InsertEvent(ctx, event)
}

// List returns the events of a request in the given order. The read is
// restartable and has no side effects.
func (t *Timeline) List(ctx context.Context, requestID uuid.UUID, order EventOrder) ([]AuditEvent, error) {
	if order != OrderAsc {
		order = OrderDesc
	}
	return t.repo.ListEvents(ctx, requestID, order)
}

// Progress computes the stepper position for a request from its timeline.
func (t *Timeline) Progress(ctx context.Context, requestID uuid.UUID) (int, error) {
	events, err := t.repo.ListEvents(ctx, requestID, OrderAsc)
	if err != nil {
		return 0, err
	}
	return StepIndex(events), nil
}

// guardAppend enforces strictly non-decreasing event time per request.
func guardAppend(lastCreated, next time.Time) error {
	if next.Before(lastCreated) {
		return ErrOutOfOrder
	}
	return nil
}

// StepIndex projects a request's timeline onto the 5-step progress stepper.
// A request only exists once the organization has a profile and has
// submitted documents, so those two steps count as done; each of the
// submit, site_visit and approve event kinds advances one more step the
// first time it appears.
func StepIndex(events []AuditEvent) int {
	seen := map[Action]bool{}
	for _, e := range events {
		switch e.Action {
		case ActionSubmit, ActionSiteVisit, ActionApprove:
			seen[e.Action] = true
		}
	}
	index := StepDocsSubmitted + len(seen)
	if index > StepVerified {
		index = StepVerified
	}
	return index
}
