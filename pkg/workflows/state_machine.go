package workflows

// StateMachine enforces allowed status transitions for a workflow.
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine from a transition table. Keys are
// source states, values the states reachable from them. States absent from
// the table allow no transitions.
func NewStateMachine(transitions map[string][]string) *StateMachine {
	copied := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		copied[from] = append([]string(nil), to...)
	}
	return &StateMachine{allowedTransitions: copied}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsTerminal reports whether no transition leaves the given status.
func (sm *StateMachine) IsTerminal(from string) bool {
	return len(sm.allowedTransitions[from]) == 0
}
