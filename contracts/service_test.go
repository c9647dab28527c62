package contracts

import (
	"context"
	"errors"
	"testing"

	"mspdesk-backend/models"
)

type memContractStore struct {
	contracts map[string]*models.Contract
	audits    []models.ContractError
}

func newMemContractStore(list ...*models.Contract) *memContractStore {
	s := &memContractStore{contracts: make(map[string]*models.Contract)}
	for _, c := range list {
		s.contracts[c.Id] = c
	}
	return s
}

func (s *memContractStore) Get(ctx context.Context, id string) (*models.Contract, error) {
	c, ok := s.contracts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memContractStore) UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus, reason string) error {
	c, ok := s.contracts[id]
	if !ok || c.Status != from {
		return errors.New("contract status changed concurrently")
	}
	c.Status = to
	c.StatusReason = reason
	return nil
}

func (s *memContractStore) SaveError(ctx context.Context, e *models.ContractError) error {
	s.audits = append(s.audits, *e)
	return nil
}

func TestRejectedTransitionWritesAuditRow(t *testing.T) {
	ctx := context.Background()
	store := newMemContractStore(&models.Contract{Id: "c-1", Status: models.ContractDraft})
	svc := NewServiceWithStore(store)

	err := svc.UpdateStatus(ctx, "c-1", models.ContractTerminated, "early exit")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	// the audit row must survive the rejected update
	if len(store.audits) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(store.audits))
	}
	audit := store.audits[0]
	if audit.ContractId != "c-1" || audit.FromStatus != "draft" || audit.ToStatus != "terminated" {
		t.Fatalf("audit = %+v", audit)
	}
	if audit.Reason != "Cannot transition from draft to terminated" {
		t.Fatalf("audit reason = %q", audit.Reason)
	}

	if store.contracts["c-1"].Status != models.ContractDraft {
		t.Fatalf("contract status = %q, want draft (unchanged)", store.contracts["c-1"].Status)
	}
}

func TestUpdateStatusAppliesReason(t *testing.T) {
	ctx := context.Background()
	store := newMemContractStore(&models.Contract{Id: "c-1", Status: models.ContractDraft})
	svc := NewServiceWithStore(store)

	if err := svc.UpdateStatus(ctx, "c-1", models.ContractActive, "signed by client"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	c := store.contracts["c-1"]
	if c.Status != models.ContractActive {
		t.Fatalf("status = %q, want active", c.Status)
	}
	if c.StatusReason != "signed by client" {
		t.Fatalf("status_reason = %q, want the caller's reason", c.StatusReason)
	}
	if len(store.audits) != 0 {
		t.Fatalf("valid transitions must not write audit rows, got %d", len(store.audits))
	}
}

func TestUpdateStatusUnknownContract(t *testing.T) {
	svc := NewServiceWithStore(newMemContractStore())
	if err := svc.UpdateStatus(context.Background(), "missing", models.ContractActive, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUnknownContract(t *testing.T) {
	svc := NewServiceWithStore(newMemContractStore())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
