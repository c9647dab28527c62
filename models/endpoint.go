package models

import (
	"time"

	"gorm.io/datatypes"
)

// Endpoint is a registered gateway route with its policy metadata.
// Endpoints live in the public schema, scoped by tenant id (the tenant
// schema name), so the gateway can resolve them before any tenant
// context exists. The gateway resolves requests by exact
// (tenant, path, method) match among active endpoints.
type Endpoint struct {
	Id                  string         `json:"id" gorm:"primaryKey"`
	TenantId            string         `json:"tenant_id" gorm:"size:64;not null;index:idx_endpoints_tenant_path_method,unique,priority:1"`
	Path                string         `json:"path" gorm:"not null;index:idx_endpoints_tenant_path_method,unique,priority:2"`
	Method              string         `json:"method" gorm:"size:10;not null;index:idx_endpoints_tenant_path_method,unique,priority:3"`
	AuthRequired        bool           `json:"auth_required"`
	AllowedRoles        datatypes.JSON `json:"allowed_roles" gorm:"type:jsonb"` // JSON array of role names
	APIKeyRequired      bool           `json:"api_key_required"`
	RateLimitPerMinute  int            `json:"rate_limit_per_minute" gorm:"default:60"`
	ValidationEnabled   bool           `json:"validation_enabled"`
	RequestSchema       datatypes.JSON `json:"request_schema" gorm:"type:jsonb"`
	Deprecated          bool           `json:"deprecated"`
	ReplacementEndpoint string         `json:"replacement_endpoint"`
	DeprecationDate     *time.Time     `json:"deprecation_date"`
	Version             string         `json:"version" gorm:"size:20;default:'v1'"`
	IsActive            bool           `json:"is_active" gorm:"default:true"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// RequestLog is one audit row per gateway-processed request. Written
// best-effort after the response is built; a failed write never fails
// the request.
type RequestLog struct {
	Id          uint           `json:"id" gorm:"primaryKey"`
	TenantId    string         `json:"tenant_id" gorm:"size:64;index"`
	Method      string         `json:"method" gorm:"size:10"`
	Path        string         `json:"path" gorm:"size:255;index"`
	QueryParams datatypes.JSON `json:"query_params" gorm:"type:jsonb"`
	Headers     datatypes.JSON `json:"headers" gorm:"type:jsonb"`
	Body        datatypes.JSON `json:"body" gorm:"type:jsonb"`
	StatusCode  int            `json:"status_code"`
	DurationMs  int64          `json:"duration_ms"`
	ClientIP    string         `json:"client_ip" gorm:"size:64"`
	UserAgent   string         `json:"user_agent" gorm:"size:255"`
	UserID      string         `json:"user_id" gorm:"size:128;index"`
	CreatedAt   time.Time      `json:"created_at"`
}
