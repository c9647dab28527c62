package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractStatus is the authoritative lifecycle field of a contract.
// Contracts are created in draft and change status only through
// validated transitions (see the contracts package).
type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractExpired    ContractStatus = "expired"
	ContractTerminated ContractStatus = "terminated"
)

type Contract struct {
	Id            string         `json:"id" gorm:"primaryKey"`
	ClientId      uint           `json:"client_id" gorm:"index;not null"`
	Client        Client         `json:"client" gorm:"foreignKey:ClientId;references:Id"`
	Title         string         `json:"title" gorm:"not null"`
	Status        ContractStatus `json:"status" gorm:"size:20;default:'draft';index"`
	TotalValue    float64        `json:"total_value" gorm:"type:numeric(12,2)"`
	Currency      string         `json:"currency" gorm:"size:3;default:'USD'"`
	StartDate     *time.Time     `json:"start_date"`
	EndDate       *time.Time     `json:"end_date"`
	RenewalDate   *time.Time     `json:"renewal_date"`
	AutoRenewal   bool           `json:"auto_renewal"`
	StatusReason  string         `json:"status_reason" gorm:"type:text"`
	PricingRuleId *string        `json:"pricing_rule_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (contract *Contract) BeforeCreate(tx *gorm.DB) (err error) {
	if contract.Id == "" {
		contract.Id = uuid.NewString()
	}
	if contract.Status == "" {
		contract.Status = ContractDraft
	}
	return
}

// ContractError records a rejected lifecycle transition for audit.
type ContractError struct {
	Id         uint      `json:"id" gorm:"primaryKey"`
	ContractId string    `json:"contract_id" gorm:"index;not null"`
	FromStatus string    `json:"from_status" gorm:"size:20"`
	ToStatus   string    `json:"to_status" gorm:"size:20"`
	Reason     string    `json:"reason" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}
