package handler

import (
	"net/http"
	"testing"

	"notes-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, "acme", model.PlanFree)
	user := env.seedUser(t, "user@acme.test", model.RoleMember, tenant)

	rec := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "user@acme.test",
		"password": testPassword,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["token"])

	claims, err := env.jwt.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, "acme", claims.TenantSlug)
	assert.Equal(t, model.RoleMember, claims.Role)

	userBody := body["user"].(map[string]interface{})
	assert.Equal(t, user.ID, userBody["id"])
	assert.Equal(t, "user@acme.test", userBody["email"])
	assert.Equal(t, "acme", userBody["tenant_slug"])
}

// Unknown email and wrong password must be indistinguishable.
func TestLoginFailuresAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, "acme", model.PlanFree)
	env.seedUser(t, "user@acme.test", model.RoleMember, tenant)

	wrongPassword := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "user@acme.test",
		"password": "wrong-password",
	})
	unknownEmail := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@acme.test",
		"password": testPassword,
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "user@acme.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
