package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"notes-service/internal/model"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for every verification failure. Tampered,
// malformed and expired tokens are deliberately indistinguishable to the
// caller so the API cannot be used as an oracle.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserClaims is the identity assertion carried on each request: a snapshot
// of the user, their tenant and their role taken at login time. If the
// underlying role or plan changes afterwards, the claims are stale until
// the user logs in again.
type UserClaims struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	TenantID   string     `json:"tenant_id"`
	TenantSlug string     `json:"tenant_slug"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// JWT issues and verifies signed identity assertions keyed by a shared
// server-held secret.
type JWT struct {
	signingKey []byte
	expiration time.Duration
}

// New creates a JWT utility from the given configuration. A non-empty
// signing key is a startup precondition enforced by config.Load.
func New(cfg *JWTConfig) *JWT {
	expiration := time.Duration(cfg.ExpirationHours) * time.Hour
	if cfg.ExpirationHours <= 0 {
		expiration = 24 * time.Hour
	}
	return &JWT{
		signingKey: []byte(cfg.SigningKey),
		expiration: expiration,
	}
}

// GenerateToken creates a signed token asserting the user's identity
// within their tenant.
func (j *JWT) GenerateToken(user *model.User, tenant *model.Tenant) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.signingKey)
}

// ValidateToken validates and parses the JWT token. Every failure mode
// collapses into ErrInvalidToken.
func (j *JWT) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.signingKey, nil
		},
	)

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
