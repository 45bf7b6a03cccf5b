package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler serves tenant plan management.
type TenantHandler struct {
	store store.Store
}

// NewTenantHandler creates a TenantHandler with its dependencies.
func NewTenantHandler(s store.Store) *TenantHandler {
	return &TenantHandler{store: s}
}

// UpgradePlan transitions the tenant identified by the slug path parameter
// from FREE to PRO. An admin may only upgrade their own tenant; upgrading a
// tenant that is already PRO succeeds without a second side effect.
func (h *TenantHandler) UpgradePlan(c echo.Context) error {
	log := logger.FromContext(c)

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	// Re-validate the role even though the route's authorization gate
	// already checked it.
	if claims.Role != model.RoleAdmin {
		prometheus.RecordAuthError("forbidden_role")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "insufficient permissions"})
	}

	slug := c.Param("slug")
	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.store.FindTenantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "tenant not found"})
		}
		log.Error("Failed to look up tenant", zap.Error(err), zap.String("slug", slug))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	// Ownership check: the admin's own tenant only, even with a valid slug.
	if tenant.ID != claims.TenantID {
		log.Warn("Cross-tenant upgrade attempt denied",
			zap.String("requester_tenant_id", claims.TenantID),
			zap.String("target_tenant_id", tenant.ID))
		prometheus.RecordAuthError("tenant_ownership_violation")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "you are not authorized to upgrade this tenant"})
	}

	if tenant.Plan == model.PlanPro {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Tenant is already on Pro plan",
			"tenant":  tenant,
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updated, err := h.store.UpgradeTenantPlan(ctx, tenant.ID)
	if err != nil {
		log.Error("Failed to upgrade tenant plan", zap.Error(err), zap.String("tenant_id", tenant.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	prometheus.TenantUpgradeCounter.Inc()
	log.Info("Tenant upgraded to Pro plan",
		zap.String("tenant_id", updated.ID),
		zap.String("slug", updated.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("%s successfully upgraded to Pro plan.", updated.Name),
		"tenant":  updated,
	})
}
