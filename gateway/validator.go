package gateway

import (
	"context"
	"encoding/json"
	"time"

	"mspdesk-backend/models"
)

// TokenVerifier exchanges a bearer token for a user identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// RoleStore resolves the role of an authenticated user.
type RoleStore interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// KeyStore looks up an API key by its raw value. Returns (nil, nil)
// when no matching key exists.
type KeyStore interface {
	Lookup(ctx context.Context, rawKey string) (*models.APIKey, error)
}

// ValidationResult carries the outcome of the auth chain. UserID may
// be set even on failure (e.g. authenticated but wrong role) so the
// dispatcher can still attribute the request in the log.
type ValidationResult struct {
	Valid  bool
	Error  string
	UserID string
}

// Validator runs the per-request auth chain, short-circuiting on the
// first failure: bearer token, role, API-key presence, API-key
// validity. Body validation is a separate, accumulate-all concern.
type Validator struct {
	tokens TokenVerifier
	roles  RoleStore
	keys   KeyStore
	now    func() time.Time
}

func NewValidator(tokens TokenVerifier, roles RoleStore, keys KeyStore) *Validator {
	return &Validator{tokens: tokens, roles: roles, keys: keys, now: time.Now}
}

func (v *Validator) Validate(ctx context.Context, bearerToken, apiKey string, endpoint *models.Endpoint) ValidationResult {
	var userID string

	if endpoint.AuthRequired {
		if bearerToken == "" {
			return ValidationResult{Error: "Invalid authentication token"}
		}
		id, err := v.tokens.Verify(ctx, bearerToken)
		if err != nil {
			return ValidationResult{Error: "Invalid authentication token"}
		}
		userID = id
	}

	allowedRoles := decodeRoles(endpoint.AllowedRoles)
	if len(allowedRoles) > 0 {
		role, err := v.roles.RoleOf(ctx, userID)
		if err != nil || !contains(allowedRoles, role) {
			return ValidationResult{Error: "Insufficient permissions", UserID: userID}
		}
	}

	if endpoint.APIKeyRequired && apiKey == "" {
		return ValidationResult{Error: "API key required", UserID: userID}
	}

	if apiKey != "" {
		key, err := v.keys.Lookup(ctx, apiKey)
		if err != nil || key == nil || !key.IsActive || key.TenantId != endpoint.TenantId {
			return ValidationResult{Error: "Invalid API key", UserID: userID}
		}
		if key.Expired(v.now()) {
			return ValidationResult{Error: "API key expired", UserID: userID}
		}
	}

	return ValidationResult{Valid: true, UserID: userID}
}

func decodeRoles(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil
	}
	return roles
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
