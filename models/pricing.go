package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PricingRule is a named, reusable bundle of discount and tax rules.
type PricingRule struct {
	Id            string         `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null;unique"`
	DiscountRules datatypes.JSON `json:"discount_rules" gorm:"type:jsonb"`
	TaxRules      datatypes.JSON `json:"tax_rules" gorm:"type:jsonb"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (r *PricingRule) BeforeCreate(tx *gorm.DB) (err error) {
	if r.Id == "" {
		r.Id = uuid.NewString()
	}
	return
}

// PricingHistory is an append-only audit record of a pricing change.
// Rollbacks are expressed as new entries with swapped old/new values
// referencing the original; prior entries are never mutated or deleted.
type PricingHistory struct {
	Id                 string         `json:"id" gorm:"primaryKey"`
	ContractId         string         `json:"contract_id" gorm:"index;not null"`
	ChangeType         string         `json:"change_type" gorm:"size:20"` // create | update | rollback
	OldValues          datatypes.JSON `json:"old_values" gorm:"type:jsonb"`
	NewValues          datatypes.JSON `json:"new_values" gorm:"type:jsonb"`
	ChangeReason       string         `json:"change_reason" gorm:"type:text"`
	CalculationDetails datatypes.JSON `json:"calculation_details" gorm:"type:jsonb"`
	RollbackOf         *string        `json:"rollback_of"`
	ChangedBy          string         `json:"changed_by" gorm:"size:128"`
	ChangedAt          time.Time      `json:"changed_at"`
}

func (h *PricingHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.Id == "" {
		h.Id = uuid.NewString()
	}
	return
}
