package contracts

import (
	"fmt"

	"mspdesk-backend/models"
)

// Transition is the outcome of validating one lifecycle step. It is
// derived from the fixed table below and never stored.
type Transition struct {
	From              models.ContractStatus `json:"from"`
	To                models.ContractStatus `json:"to"`
	IsValid           bool                  `json:"isValid"`
	RequiredApprovals int                   `json:"requiredApprovals"`
	Reason            string                `json:"reason,omitempty"`
}

// Allowed lifecycle steps. terminated is absorbing: no outbound edges.
var transitions = map[models.ContractStatus][]models.ContractStatus{
	models.ContractDraft:      {models.ContractActive},
	models.ContractActive:     {models.ContractExpired, models.ContractTerminated},
	models.ContractExpired:    {models.ContractActive}, // renewal
	models.ContractTerminated: {},
}

// ValidateTransition checks (current, target) against the transition
// table and derives the approval policy for valid steps: activating a
// new contract (draft→active) needs 2 approvals, a renewal or a
// termination needs 1, everything else 0.
func ValidateTransition(current, target models.ContractStatus) Transition {
	t := Transition{From: current, To: target}

	for _, next := range transitions[current] {
		if next == target {
			t.IsValid = true
			break
		}
	}
	if !t.IsValid {
		t.Reason = fmt.Sprintf("Cannot transition from %s to %s", current, target)
		return t
	}

	switch {
	case target == models.ContractActive && current == models.ContractDraft:
		t.RequiredApprovals = 2
	case target == models.ContractActive:
		t.RequiredApprovals = 1
	case target == models.ContractTerminated:
		t.RequiredApprovals = 1
	}
	return t
}

// Statuses returns the known lifecycle statuses.
func Statuses() []models.ContractStatus {
	return []models.ContractStatus{
		models.ContractDraft,
		models.ContractActive,
		models.ContractExpired,
		models.ContractTerminated,
	}
}
