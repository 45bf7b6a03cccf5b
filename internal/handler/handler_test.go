package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password"

type testEnv struct {
	e     *echo.Echo
	store *store.MemoryStore
	jwt   *jwtutil.JWT
}

// newTestEnv wires the full gate pipeline over an in-memory store, matching
// the production route setup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.NewMemoryStore()
	j := jwtutil.New(&jwtutil.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 24})

	authHandler := NewAuthHandler(s, j)
	tenantHandler := NewTenantHandler(s)
	noteHandler := NewNoteHandler(s)

	e := echo.New()

	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)

	authenticate := middleware.Authenticate(j)

	tenants := e.Group("/tenants", authenticate, middleware.RequireRole(model.RoleAdmin))
	tenants.POST("/:slug/upgrade", tenantHandler.UpgradePlan)

	notes := e.Group("/notes", authenticate, middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	notes.POST("", noteHandler.Create, middleware.NoteQuota(s))
	notes.GET("", noteHandler.List)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	return &testEnv{e: e, store: s, jwt: j}
}

func (env *testEnv) seedTenant(t *testing.T, slug string, plan model.Plan) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Slug: slug, Name: slug, Plan: plan}
	require.NoError(t, env.store.CreateTenant(context.Background(), tenant))
	return tenant
}

func (env *testEnv) seedUser(t *testing.T, email string, role model.Role, tenant *model.Tenant) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: string(hash), Role: role, TenantID: tenant.ID}
	require.NoError(t, env.store.CreateUser(context.Background(), user))
	return user
}

func (env *testEnv) token(t *testing.T, user *model.User, tenant *model.Tenant) string {
	t.Helper()
	token, err := env.jwt.GenerateToken(user, tenant)
	require.NoError(t, err)
	return token
}

func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
