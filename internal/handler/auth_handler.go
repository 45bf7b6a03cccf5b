package handler

import (
	"errors"
	"net/http"
	"time"

	"notes-service/internal/store"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	store store.Store
	jwt   *jwtutil.JWT
}

// NewAuthHandler creates an AuthHandler with its dependencies.
func NewAuthHandler(s store.Store, jwt *jwtutil.JWT) *AuthHandler {
	return &AuthHandler{store: s, jwt: jwt}
}

// Login authenticates a user and issues a signed token carrying the user's
// tenant and role. Unknown email and wrong password produce the same
// response so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}

	ctx := c.Request().Context()

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("Login failed: user not found", zap.String("email", req.Email))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		log.Error("Failed to look up user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info("Login failed: invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	tenant, err := h.store.FindTenantByID(ctx, user.TenantID)
	if err != nil {
		log.Error("Failed to load user's tenant", zap.Error(err), zap.String("tenant_id", user.TenantID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	// Generate JWT token with the tenant snapshot
	token, err := h.jwt.GenerateToken(user, tenant)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("tenant_slug", tenant.Slug),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":          user.ID,
			"email":       user.Email,
			"role":        user.Role,
			"tenant_id":   user.TenantID,
			"tenant_name": tenant.Name,
			"tenant_slug": tenant.Slug,
		},
	})
}
