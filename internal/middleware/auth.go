package middleware

import (
	"errors"
	"net/http"
	"strings"

	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// identityKey is the echo context key holding the authenticated claims.
const identityKey = "identity"

// Identity returns the authenticated claims attached by Authenticate.
func Identity(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(identityKey).(*jwtutil.UserClaims)
	return claims, ok
}

// Authenticate validates the JWT token from the Authorization header and
// attaches the decoded identity to the request context. Missing, malformed,
// tampered and expired tokens all produce the same 401 response; the
// failure mode is never leaked to the caller.
func Authenticate(jwt *jwtutil.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Error("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication token missing or malformed"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Error("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication token missing or malformed"})
			}

			// Validate the token
			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
			}

			// Store identity in context for downstream gates and handlers
			c.Set(identityKey, claims)

			log.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
				zap.String("tenant_slug", claims.TenantSlug),
				zap.String("role", string(claims.Role)))

			return next(c)
		}
	}
}

// RequireRole permits the request only when the authenticated identity's
// role is in the allow-list. Pure role check; never touches the store.
func RequireRole(allowedRoles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Identity(c)
			if !ok {
				prometheus.RecordAuthError("not_authenticated")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
			}

			for _, role := range allowedRoles {
				if claims.Role == role {
					return next(c)
				}
			}

			logger.FromContext(c).Warn("Role not permitted for route",
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)))
			prometheus.RecordAuthError("forbidden_role")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "insufficient permissions"})
		}
	}
}

// NoteQuota denies note creation for FREE tenants at the note limit.
// This is the user-facing gate in the pipeline; the authoritative check
// runs again inside store.CreateNote under the tenant lock, so a request
// that races past this gate still cannot overshoot the limit.
func NoteQuota(s store.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			claims, ok := Identity(c)
			if !ok {
				prometheus.RecordAuthError("not_authenticated")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
			}

			ctx := c.Request().Context()

			tenant, err := s.FindTenantByID(ctx, claims.TenantID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "tenant not found"})
				}
				log.Error("Failed to look up tenant plan", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error while checking subscription"})
			}

			if tenant.Plan == model.PlanFree {
				count, err := s.CountNotesByTenant(ctx, claims.TenantID)
				if err != nil {
					log.Error("Failed to count notes", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error while checking subscription"})
				}

				if count >= model.FreePlanNoteLimit {
					log.Info("Note creation denied by plan quota",
						zap.String("tenant_id", claims.TenantID),
						zap.Int64("count", count))
					prometheus.RecordQuotaDenied(claims.TenantSlug)
					return c.JSON(http.StatusForbidden, echo.Map{"message": model.QuotaExceededMessage})
				}
			}

			return next(c)
		}
	}
}
