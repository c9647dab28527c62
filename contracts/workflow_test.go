package contracts

import (
	"context"
	"errors"
	"testing"
	"time"

	"mspdesk-backend/models"

	"github.com/google/uuid"
)

type memWorkflowStore struct {
	workflows map[string]*models.ApprovalWorkflow
	decisions []models.ApprovalDecision
}

func newMemWorkflowStore() *memWorkflowStore {
	return &memWorkflowStore{workflows: make(map[string]*models.ApprovalWorkflow)}
}

func (s *memWorkflowStore) ActiveByContract(ctx context.Context, contractID string) (*models.ApprovalWorkflow, error) {
	for _, w := range s.workflows {
		if w.ContractId == contractID && !w.Status.Terminal() {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memWorkflowStore) Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	w, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (s *memWorkflowStore) Create(ctx context.Context, w *models.ApprovalWorkflow) error {
	if w.Id == "" {
		w.Id = uuid.NewString()
	}
	cp := *w
	s.workflows[w.Id] = &cp
	return nil
}

func (s *memWorkflowStore) Update(ctx context.Context, w *models.ApprovalWorkflow) error {
	cp := *w
	s.workflows[w.Id] = &cp
	return nil
}

func (s *memWorkflowStore) AddDecision(ctx context.Context, d *models.ApprovalDecision) error {
	s.decisions = append(s.decisions, *d)
	return nil
}

func (s *memWorkflowStore) Pending(ctx context.Context) ([]models.ApprovalWorkflow, error) {
	var out []models.ApprovalWorkflow
	for _, w := range s.workflows {
		if w.Status == models.WorkflowPending {
			out = append(out, *w)
		}
	}
	return out, nil
}

func TestInitiateRejectsSecondActiveWorkflow(t *testing.T) {
	store := newMemWorkflowStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	if _, err := tracker.Initiate(ctx, "c1", models.ContractActive, 2, 0, "u1"); err != nil {
		t.Fatal(err)
	}
	_, err := tracker.Initiate(ctx, "c1", models.ContractActive, 2, 0, "u1")
	if !errors.Is(err, ErrWorkflowActive) {
		t.Fatalf("err = %v, want ErrWorkflowActive", err)
	}

	// Other contracts are unaffected.
	if _, err := tracker.Initiate(ctx, "c2", models.ContractTerminated, 1, 0, "u1"); err != nil {
		t.Fatal(err)
	}
}

func TestInitiateDefaultsTimeout(t *testing.T) {
	tracker := NewTracker(newMemWorkflowStore())
	w, err := tracker.Initiate(context.Background(), "c1", models.ContractActive, 2, 0, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if w.TimeoutHours != DefaultTimeoutHours {
		t.Fatalf("timeoutHours = %d, want %d", w.TimeoutHours, DefaultTimeoutHours)
	}
	if w.CurrentLevel != 1 || w.Status != models.WorkflowPending {
		t.Fatalf("new workflow should be pending at level 1, got level %d status %s", w.CurrentLevel, w.Status)
	}
}

func TestApprovalAdvancesThenCompletes(t *testing.T) {
	store := newMemWorkflowStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	w, _ := tracker.Initiate(ctx, "c1", models.ContractActive, 2, 24, "u1")

	w, err := tracker.ProcessApproval(ctx, w.Id, "approver-1", "approved", "looks fine")
	if err != nil {
		t.Fatal(err)
	}
	if w.CurrentLevel != 2 || w.Status != models.WorkflowPending || w.IsComplete {
		t.Fatalf("after level 1 approval: level=%d status=%s complete=%v", w.CurrentLevel, w.Status, w.IsComplete)
	}

	w, err = tracker.ProcessApproval(ctx, w.Id, "approver-2", "approved", "")
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != models.WorkflowApproved || !w.IsComplete || w.CompletedAt == nil {
		t.Fatalf("final approval should complete workflow, got status=%s complete=%v", w.Status, w.IsComplete)
	}

	if len(store.decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(store.decisions))
	}
}

func TestRejectionTerminatesImmediately(t *testing.T) {
	store := newMemWorkflowStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	w, _ := tracker.Initiate(ctx, "c1", models.ContractActive, 3, 24, "u1")
	w, err := tracker.ProcessApproval(ctx, w.Id, "approver-1", "rejected", "too expensive")
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != models.WorkflowRejected || !w.IsComplete {
		t.Fatalf("rejection should terminate, got status=%s complete=%v", w.Status, w.IsComplete)
	}

	// Terminal workflows accept no further decisions.
	if _, err := tracker.ProcessApproval(ctx, w.Id, "approver-2", "approved", ""); !errors.Is(err, ErrWorkflowComplete) {
		t.Fatalf("err = %v, want ErrWorkflowComplete", err)
	}
}

func TestProcessApprovalValidatesInputs(t *testing.T) {
	tracker := NewTracker(newMemWorkflowStore())
	ctx := context.Background()

	if _, err := tracker.ProcessApproval(ctx, "missing", "u", "approved", ""); !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("err = %v, want ErrWorkflowNotFound", err)
	}
	if _, err := tracker.ProcessApproval(ctx, "any", "u", "maybe", ""); !errors.Is(err, ErrBadDecision) {
		t.Fatalf("err = %v, want ErrBadDecision", err)
	}
}

func TestSweepTimeouts(t *testing.T) {
	store := newMemWorkflowStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	stale, _ := tracker.Initiate(ctx, "c1", models.ContractActive, 2, 24, "u1")
	fresh, _ := tracker.Initiate(ctx, "c2", models.ContractTerminated, 1, 72, "u1")

	tracker.now = func() time.Time { return base.Add(25 * time.Hour) }
	swept, err := tracker.SweepTimeouts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	got, _ := store.Get(ctx, stale.Id)
	if got.Status != models.WorkflowTimeout || !got.IsComplete {
		t.Fatalf("stale workflow status = %s, want timeout", got.Status)
	}
	got, _ = store.Get(ctx, fresh.Id)
	if got.Status != models.WorkflowPending {
		t.Fatalf("fresh workflow status = %s, want pending", got.Status)
	}
}
