package verification

import (
	"fmt"

	"impactbridge/partner-portal/partner-portal-backend/pkg/workflows"
)

// ErrInvalidTransition wraps a transition the lifecycle does not allow.
type ErrInvalidTransition struct {
	From   RequestStatus
	Action Action
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("action %q not allowed in status %q", e.Action, e.From)
}

// newLifecycle builds the verification request lifecycle:
//
//	unverified -> pending -> in_progress -> verified
//	                              \-> rejected -> pending (resubmission)
//
// verified is terminal for the request; a rejected organization may submit
// again once its documents are in order.
func newLifecycle() *workflows.StateMachine {
	return workflows.NewStateMachine(map[string][]string{
		string(StatusUnverified): {string(StatusPending)},
		string(StatusPending):    {string(StatusInProgress)},
		string(StatusInProgress): {string(StatusVerified), string(StatusRejected)},
		string(StatusRejected):   {string(StatusPending)},
		string(StatusVerified):   {},
	})
}

// statusAfter maps an action applied in the current status to the resulting
// status. Transitions and audit events are 1:1: every status change carries
// exactly one event, and an event's action always matches the status it
// produced. An ops comment while already in progress keeps the status and
// still appends its event.
func statusAfter(current RequestStatus, action Action) (RequestStatus, error) {
	lifecycle := newLifecycle()

	switch action {
	case ActionSubmit:
		if lifecycle.CanTransition(string(current), string(StatusPending)) {
			return StatusPending, nil
		}
	case ActionComment, ActionSiteVisit:
		// Any ops engagement moves a pending request into progress.
		if current == StatusInProgress {
			return StatusInProgress, nil
		}
		if lifecycle.CanTransition(string(current), string(StatusInProgress)) {
			return StatusInProgress, nil
		}
	case ActionApprove:
		if lifecycle.CanTransition(string(current), string(StatusVerified)) {
			return StatusVerified, nil
		}
	case ActionReject:
		if lifecycle.CanTransition(string(current), string(StatusRejected)) {
			return StatusRejected, nil
		}
	}
	return current, &ErrInvalidTransition{From: current, Action: action}
}
