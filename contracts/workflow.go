package contracts

import (
	"context"
	"errors"
	"time"

	"mspdesk-backend/models"
)

const DefaultTimeoutHours = 48

var (
	ErrWorkflowNotFound = errors.New("approval workflow not found")
	ErrWorkflowActive   = errors.New("an approval workflow is already active for this contract")
	ErrWorkflowComplete = errors.New("approval workflow already completed")
	ErrBadDecision      = errors.New("decision must be approved or rejected")
)

// WorkflowStore persists approval workflows and their decisions.
type WorkflowStore interface {
	ActiveByContract(ctx context.Context, contractID string) (*models.ApprovalWorkflow, error)
	Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	Create(ctx context.Context, w *models.ApprovalWorkflow) error
	Update(ctx context.Context, w *models.ApprovalWorkflow) error
	AddDecision(ctx context.Context, d *models.ApprovalDecision) error
	Pending(ctx context.Context) ([]models.ApprovalWorkflow, error)
}

// Tracker runs multi-level approval processes on top of the contract
// state machine. One non-terminal workflow per contract at a time:
// initiating a second is rejected, never silently overwritten.
type Tracker struct {
	store WorkflowStore
	now   func() time.Time
}

func NewTracker(store WorkflowStore) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Initiate creates a pending workflow at level 1. requiredLevels must
// be at least 1; timeoutHours falls back to DefaultTimeoutHours when
// not positive.
func (t *Tracker) Initiate(ctx context.Context, contractID string, targetStatus models.ContractStatus, requiredLevels, timeoutHours int, initiatedBy string) (*models.ApprovalWorkflow, error) {
	if requiredLevels < 1 {
		return nil, errors.New("requiredLevels must be >= 1")
	}
	if timeoutHours <= 0 {
		timeoutHours = DefaultTimeoutHours
	}

	active, err := t.store.ActiveByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrWorkflowActive
	}

	w := &models.ApprovalWorkflow{
		ContractId:     contractID,
		TargetStatus:   targetStatus,
		ApprovalLevels: requiredLevels,
		CurrentLevel:   1,
		TimeoutHours:   timeoutHours,
		Status:         models.WorkflowPending,
		InitiatedBy:    initiatedBy,
		InitiatedAt:    t.now(),
	}
	if err := t.store.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ProcessApproval records a decision at the workflow's current level.
// A rejection terminates the workflow immediately; an approval at the
// final level completes it, otherwise the workflow advances one level
// and stays pending.
func (t *Tracker) ProcessApproval(ctx context.Context, workflowID, approverID, decision, comments string) (*models.ApprovalWorkflow, error) {
	if decision != "approved" && decision != "rejected" {
		return nil, ErrBadDecision
	}

	w, err := t.store.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWorkflowNotFound
	}
	if w.Status.Terminal() {
		return nil, ErrWorkflowComplete
	}

	now := t.now()
	d := &models.ApprovalDecision{
		WorkflowId: w.Id,
		Level:      w.CurrentLevel,
		ApproverId: approverID,
		Decision:   decision,
		Comments:   comments,
		DecidedAt:  now,
	}
	if err := t.store.AddDecision(ctx, d); err != nil {
		return nil, err
	}

	switch {
	case decision == "rejected":
		w.Status = models.WorkflowRejected
		w.IsComplete = true
		w.CompletedAt = &now
	case w.CurrentLevel >= w.ApprovalLevels:
		w.Status = models.WorkflowApproved
		w.IsComplete = true
		w.CompletedAt = &now
	default:
		w.CurrentLevel++
	}

	if err := t.store.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// SweepTimeouts marks pending workflows whose timeout has elapsed as
// timed out. Intended to be run periodically by the host process.
func (t *Tracker) SweepTimeouts(ctx context.Context) (int, error) {
	pending, err := t.store.Pending(ctx)
	if err != nil {
		return 0, err
	}

	now := t.now()
	swept := 0
	for i := range pending {
		w := pending[i]
		deadline := w.InitiatedAt.Add(time.Duration(w.TimeoutHours) * time.Hour)
		if now.Before(deadline) {
			continue
		}
		w.Status = models.WorkflowTimeout
		w.IsComplete = true
		w.CompletedAt = &now
		if err := t.store.Update(ctx, &w); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}
