package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkflowStatus string

const (
	WorkflowPending  WorkflowStatus = "pending"
	WorkflowApproved WorkflowStatus = "approved"
	WorkflowRejected WorkflowStatus = "rejected"
	WorkflowTimeout  WorkflowStatus = "timeout"
)

// Terminal reports whether the workflow can no longer advance.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowApproved || s == WorkflowRejected || s == WorkflowTimeout
}

// ApprovalWorkflow is a multi-level sign-off process gating a contract
// status transition. At most one non-terminal workflow exists per
// contract at a time.
type ApprovalWorkflow struct {
	Id             string         `json:"id" gorm:"primaryKey"`
	ContractId     string         `json:"contract_id" gorm:"index;not null"`
	TargetStatus   ContractStatus `json:"target_status" gorm:"size:20"`
	ApprovalLevels int            `json:"approval_levels" gorm:"not null"`
	CurrentLevel   int            `json:"current_level" gorm:"default:1"`
	TimeoutHours   int            `json:"timeout_hours" gorm:"default:48"`
	Status         WorkflowStatus `json:"status" gorm:"size:20;default:'pending';index"`
	IsComplete     bool           `json:"is_complete"`
	InitiatedBy    string         `json:"initiated_by" gorm:"size:128"`
	InitiatedAt    time.Time      `json:"initiated_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
}

func (w *ApprovalWorkflow) BeforeCreate(tx *gorm.DB) (err error) {
	if w.Id == "" {
		w.Id = uuid.NewString()
	}
	return
}

// ApprovalDecision is one processed approval at one level of a workflow.
type ApprovalDecision struct {
	Id         uint      `json:"id" gorm:"primaryKey"`
	WorkflowId string    `json:"workflow_id" gorm:"index;not null"`
	Level      int       `json:"level" gorm:"not null"`
	ApproverId string    `json:"approver_id" gorm:"size:128"`
	Decision   string    `json:"decision" gorm:"size:10"` // approved | rejected
	Comments   string    `json:"comments" gorm:"type:text"`
	DecidedAt  time.Time `json:"decided_at"`
}
