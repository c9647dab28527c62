package contracts

import (
	"fmt"
	"testing"

	"mspdesk-backend/models"
)

func TestValidTransitions(t *testing.T) {
	cases := []struct {
		from, to  models.ContractStatus
		approvals int
	}{
		{models.ContractDraft, models.ContractActive, 2},
		{models.ContractActive, models.ContractExpired, 0},
		{models.ContractActive, models.ContractTerminated, 1},
		{models.ContractExpired, models.ContractActive, 1},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			tr := ValidateTransition(tc.from, tc.to)
			if !tr.IsValid {
				t.Fatalf("expected valid transition, got reason %q", tr.Reason)
			}
			if tr.RequiredApprovals != tc.approvals {
				t.Fatalf("requiredApprovals = %d, want %d", tr.RequiredApprovals, tc.approvals)
			}
		})
	}
}

func TestInvalidTransitionsAreExhaustive(t *testing.T) {
	valid := map[[2]models.ContractStatus]bool{
		{models.ContractDraft, models.ContractActive}:      true,
		{models.ContractActive, models.ContractExpired}:    true,
		{models.ContractActive, models.ContractTerminated}: true,
		{models.ContractExpired, models.ContractActive}:    true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			tr := ValidateTransition(from, to)
			if valid[[2]models.ContractStatus{from, to}] {
				if !tr.IsValid {
					t.Errorf("%s -> %s should be valid", from, to)
				}
				continue
			}
			if tr.IsValid {
				t.Errorf("%s -> %s should be invalid", from, to)
			}
			want := fmt.Sprintf("Cannot transition from %s to %s", from, to)
			if tr.Reason != want {
				t.Errorf("%s -> %s reason = %q, want %q", from, to, tr.Reason, want)
			}
		}
	}
}

func TestTerminatedIsAbsorbing(t *testing.T) {
	for _, to := range Statuses() {
		if tr := ValidateTransition(models.ContractTerminated, to); tr.IsValid {
			t.Errorf("terminated -> %s must be invalid", to)
		}
	}
}

func TestUnknownStatusIsInvalid(t *testing.T) {
	if tr := ValidateTransition("archived", models.ContractActive); tr.IsValid {
		t.Fatal("unknown source status must be invalid")
	}
	if tr := ValidateTransition(models.ContractDraft, "archived"); tr.IsValid {
		t.Fatal("unknown target status must be invalid")
	}
}
