package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey grants gateway access without a user session. Keys live in
// the public schema scoped by tenant id. Only the sha256 hash of the
// key is stored; the plaintext is shown once at creation.
type APIKey struct {
	Id        string     `json:"id" gorm:"primaryKey"`
	TenantId  string     `json:"tenant_id" gorm:"size:64;not null;index"`
	Name      string     `json:"name" gorm:"not null"`
	KeyHash   string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) (err error) {
	if k.Id == "" {
		k.Id = uuid.NewString()
	}
	return
}

// Expired reports whether the key has an expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
