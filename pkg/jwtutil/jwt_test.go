package jwtutil

import (
	"testing"
	"time"

	"notes-service/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT() *JWT {
	return New(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 24})
}

func testUserAndTenant() (*model.User, *model.Tenant) {
	tenant := &model.Tenant{ID: "tenant-1", Slug: "acme", Name: "Acme Corporation", Plan: model.PlanFree}
	user := &model.User{ID: "user-1", Email: "user@acme.test", Role: model.RoleMember, TenantID: tenant.ID}
	return user, tenant
}

func TestGenerateAndValidateToken(t *testing.T) {
	j := testJWT()
	user, tenant := testUserAndTenant()

	token, err := j.GenerateToken(user, tenant)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleMember, claims.Role)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, tenant.Slug, claims.TenantSlug)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateTokenTampered(t *testing.T) {
	j := testJWT()
	user, tenant := testUserAndTenant()

	token, err := j.GenerateToken(user, tenant)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = j.ValidateToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongKey(t *testing.T) {
	other := New(&JWTConfig{SigningKey: "a-different-key", ExpirationHours: 24})
	user, tenant := testUserAndTenant()

	token, err := other.GenerateToken(user, tenant)
	require.NoError(t, err)

	_, err = testJWT().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	_, err := testJWT().ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// An expired token must fail exactly like a tampered one so callers cannot
// tell the two apart.
func TestValidateTokenExpiredIndistinguishableFromTampered(t *testing.T) {
	j := testJWT()
	user, tenant := testUserAndTenant()

	expired := signedToken(t, "test-signing-key", UserClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		},
	})
	_, expiredErr := j.ValidateToken(expired)
	require.Error(t, expiredErr)

	valid, err := j.GenerateToken(user, tenant)
	require.NoError(t, err)
	_, tamperedErr := j.ValidateToken(valid[:len(valid)-2] + "xx")
	require.Error(t, tamperedErr)

	assert.Equal(t, tamperedErr, expiredErr)
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	token := signedToken(t, "test-signing-key", UserClaims{
		UserID:   "user-1",
		Email:    "user@acme.test",
		Role:     model.Role("SUPERUSER"),
		TenantID: "tenant-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	_, err := testJWT().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsNonHMACSigningMethod(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, UserClaims{
		UserID:   "user-1",
		Role:     model.RoleMember,
		TenantID: "tenant-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testJWT().ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func signedToken(t *testing.T, key string, claims UserClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}
