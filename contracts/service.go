package contracts

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mspdesk-backend/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("contract not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ContractStore persists contracts and their transition audit rows.
type ContractStore interface {
	// Get returns (nil, nil) when no contract exists.
	Get(ctx context.Context, id string) (*models.Contract, error)
	// UpdateStatus applies the transition only while the row still holds
	// the from status.
	UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus, reason string) error
	SaveError(ctx context.Context, e *models.ContractError) error
}

// Service applies validated lifecycle transitions to persisted
// contracts. Validation always runs against the row's current status,
// so retrying a previously rejected update re-validates from fresh
// state.
type Service struct {
	store ContractStore
}

func NewService(db *gorm.DB) *Service {
	return &Service{store: NewGormContractStore(db)}
}

func NewServiceWithStore(store ContractStore) *Service {
	return &Service{store: store}
}

// UpdateStatus validates the transition from the contract's current
// status and applies it with the caller's reason. A rejected
// transition writes a ContractError audit row and returns
// ErrInvalidTransition without mutating the contract. The audit write
// never shares a transaction with the rejected update, so it survives
// the failure it records.
func (s *Service) UpdateStatus(ctx context.Context, contractID string, newStatus models.ContractStatus, reason string) error {
	contract, err := s.store.Get(ctx, contractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return ErrNotFound
	}

	t := ValidateTransition(contract.Status, newStatus)
	if !t.IsValid {
		audit := &models.ContractError{
			ContractId: contract.Id,
			FromStatus: string(contract.Status),
			ToStatus:   string(newStatus),
			Reason:     t.Reason,
		}
		if err := s.store.SaveError(ctx, audit); err != nil {
			log.Printf("contract error audit write failed: %v", err)
		}
		return fmt.Errorf("%w: %s", ErrInvalidTransition, t.Reason)
	}

	return s.store.UpdateStatus(ctx, contract.Id, contract.Status, newStatus, reason)
}

// Get loads a contract by id.
func (s *Service) Get(ctx context.Context, contractID string) (*models.Contract, error) {
	contract, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrNotFound
	}
	return contract, nil
}
