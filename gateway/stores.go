package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"mspdesk-backend/models"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// EndpointStore resolves an inbound (tenant, path, method) triple to a
// registered, active endpoint descriptor. Returns (nil, nil) when no
// endpoint matches.
type EndpointStore interface {
	Resolve(ctx context.Context, tenantID, path, method string) (*models.Endpoint, error)
}

// RequestLogger persists one audit row per gateway request.
type RequestLogger interface {
	Log(ctx context.Context, entry *models.RequestLog) error
}

type GormEndpointStore struct {
	db *gorm.DB
}

func NewGormEndpointStore(db *gorm.DB) *GormEndpointStore {
	return &GormEndpointStore{db: db}
}

func (s *GormEndpointStore) Resolve(ctx context.Context, tenantID, path, method string) (*models.Endpoint, error) {
	var ep models.Endpoint
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND path = ? AND method = ? AND is_active = ?", tenantID, path, strings.ToUpper(method), true).
		First(&ep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// GormKeyStore looks keys up by sha256 hash; plaintext keys are never
// stored.
type GormKeyStore struct {
	db *gorm.DB
}

func NewGormKeyStore(db *gorm.DB) *GormKeyStore {
	return &GormKeyStore{db: db}
}

// HashKey returns the hex sha256 of a raw API key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *GormKeyStore) Lookup(ctx context.Context, rawKey string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).First(&key, "key_hash = ?", HashKey(rawKey)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GormRoleStore reads roles from the public users table.
type GormRoleStore struct {
	db *gorm.DB
}

func NewGormRoleStore(db *gorm.DB) *GormRoleStore {
	return &GormRoleStore{db: db}
}

func (s *GormRoleStore) RoleOf(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Table("public.users").First(&user, "id = ?", userID).Error
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// JWTVerifier validates HS256 bearer tokens issued by the auth
// controllers and returns the subject as user id.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims jwt.RegisteredClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token missing subject")
	}
	return claims.Subject, nil
}

// GormRequestLogger writes request audit rows to the tenant schema.
type GormRequestLogger struct {
	db *gorm.DB
}

func NewGormRequestLogger(db *gorm.DB) *GormRequestLogger {
	return &GormRequestLogger{db: db}
}

func (l *GormRequestLogger) Log(ctx context.Context, entry *models.RequestLog) error {
	return l.db.WithContext(ctx).Create(entry).Error
}
