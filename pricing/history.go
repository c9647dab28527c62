package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"mspdesk-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrHistoryNotFound = errors.New("pricing history entry not found")

// HistoryStore persists the append-only pricing audit log.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.PricingHistory) error
	Get(ctx context.Context, id string) (*models.PricingHistory, error)
	ByContract(ctx context.Context, contractID string) ([]models.PricingHistory, error)
}

// History records pricing changes and expresses rollbacks as
// compensating entries. Existing entries are never mutated or deleted.
type History struct {
	store HistoryStore
	now   func() time.Time
}

func NewHistory(store HistoryStore) *History {
	return &History{store: store, now: time.Now}
}

// Save appends one history entry capturing the old and new values plus
// the calculation breakdown that produced them.
func (h *History) Save(ctx context.Context, contractID, changeType string, oldValues, newValues any, reason string, calc *Calculation, changedBy string) (*models.PricingHistory, error) {
	entry := &models.PricingHistory{
		Id:           uuid.NewString(),
		ContractId:   contractID,
		ChangeType:   changeType,
		ChangeReason: reason,
		ChangedBy:    changedBy,
		ChangedAt:    h.now(),
	}

	var err error
	if entry.OldValues, err = marshalJSON(oldValues); err != nil {
		return nil, err
	}
	if entry.NewValues, err = marshalJSON(newValues); err != nil {
		return nil, err
	}
	if calc != nil {
		if entry.CalculationDetails, err = marshalJSON(calc); err != nil {
			return nil, err
		}
	}

	if err := h.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Rollback appends a new entry with the original's old/new values
// swapped and change_type "rollback", referencing the original. The
// original entry is left untouched.
func (h *History) Rollback(ctx context.Context, historyID, changedBy string) (*models.PricingHistory, error) {
	orig, err := h.store.Get(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, ErrHistoryNotFound
	}

	entry := &models.PricingHistory{
		Id:                 uuid.NewString(),
		ContractId:         orig.ContractId,
		ChangeType:         "rollback",
		OldValues:          orig.NewValues,
		NewValues:          orig.OldValues,
		ChangeReason:       "rollback of " + orig.Id,
		CalculationDetails: orig.CalculationDetails,
		RollbackOf:         &orig.Id,
		ChangedBy:          changedBy,
		ChangedAt:          h.now(),
	}
	if err := h.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ByContract lists a contract's history, oldest first.
func (h *History) ByContract(ctx context.Context, contractID string) ([]models.PricingHistory, error) {
	return h.store.ByContract(ctx, contractID)
}

func marshalJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// GormHistoryStore persists history rows in the tenant schema.
type GormHistoryStore struct {
	db *gorm.DB
}

func NewGormHistoryStore(db *gorm.DB) *GormHistoryStore {
	return &GormHistoryStore{db: db}
}

func (s *GormHistoryStore) Append(ctx context.Context, entry *models.PricingHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormHistoryStore) Get(ctx context.Context, id string) (*models.PricingHistory, error) {
	var entry models.PricingHistory
	err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *GormHistoryStore) ByContract(ctx context.Context, contractID string) ([]models.PricingHistory, error) {
	var out []models.PricingHistory
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("changed_at asc").
		Find(&out).Error
	return out, err
}

// MemoryHistoryStore keeps history in memory; used by tests and
// single-process tooling.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	entries []models.PricingHistory
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Append(ctx context.Context, entry *models.PricingHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryHistoryStore) Get(ctx context.Context, id string) (*models.PricingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Id == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *MemoryHistoryStore) ByContract(ctx context.Context, contractID string) ([]models.PricingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PricingHistory
	for _, entry := range s.entries {
		if entry.ContractId == contractID {
			out = append(out, entry)
		}
	}
	return out, nil
}
