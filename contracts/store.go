package contracts

import (
	"context"
	"errors"

	"mspdesk-backend/models"

	"gorm.io/gorm"
)

// GormContractStore persists contracts in the tenant schema.
type GormContractStore struct {
	db *gorm.DB
}

func NewGormContractStore(db *gorm.DB) *GormContractStore {
	return &GormContractStore{db: db}
}

func (s *GormContractStore) Get(ctx context.Context, id string) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.WithContext(ctx).Preload("Client").First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// UpdateStatus is guarded on the from status so a concurrent change
// since validation cannot be overwritten.
func (s *GormContractStore) UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus, reason string) error {
	res := s.db.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "status_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("contract status changed concurrently")
	}
	return nil
}

func (s *GormContractStore) SaveError(ctx context.Context, e *models.ContractError) error {
	return s.db.WithContext(ctx).Create(e).Error
}

// GormWorkflowStore persists workflows in the tenant schema.
type GormWorkflowStore struct {
	db *gorm.DB
}

func NewGormWorkflowStore(db *gorm.DB) *GormWorkflowStore {
	return &GormWorkflowStore{db: db}
}

func (s *GormWorkflowStore) ActiveByContract(ctx context.Context, contractID string) (*models.ApprovalWorkflow, error) {
	var w models.ApprovalWorkflow
	err := s.db.WithContext(ctx).
		Where("contract_id = ? AND status = ?", contractID, models.WorkflowPending).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *GormWorkflowStore) Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	var w models.ApprovalWorkflow
	err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *GormWorkflowStore) Create(ctx context.Context, w *models.ApprovalWorkflow) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *GormWorkflowStore) Update(ctx context.Context, w *models.ApprovalWorkflow) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *GormWorkflowStore) AddDecision(ctx context.Context, d *models.ApprovalDecision) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *GormWorkflowStore) Pending(ctx context.Context) ([]models.ApprovalWorkflow, error) {
	var out []models.ApprovalWorkflow
	err := s.db.WithContext(ctx).
		Where("status = ?", models.WorkflowPending).
		Find(&out).Error
	return out, err
}
