package handler

import (
	"errors"
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

// NoteHandler serves tenant-scoped note CRUD. Every operation filters by
// the authenticated identity's tenant; a note id belonging to another
// tenant is indistinguishable from one that does not exist.
type NoteHandler struct {
	store store.Store
}

// NewNoteHandler creates a NoteHandler with its dependencies.
func NewNoteHandler(s store.Store) *NoteHandler {
	return &NoteHandler{store: s}
}

// Create persists a new note for the caller's tenant. The store enforces
// the FREE-plan quota atomically; a denial here means the quota gate and
// the insert raced and the insert lost, which is the correct outcome.
func (h *NoteHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("create")

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}

	note := model.Note{
		Title:    req.Title,
		Content:  req.Content,
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateNote(c.Request().Context(), &note); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			prometheus.RecordQuotaDenied(claims.TenantSlug)
			return c.JSON(http.StatusForbidden, echo.Map{"message": model.QuotaExceededMessage})
		}
		log.Error("Failed to create note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	log.Info("Note created",
		zap.String("note_id", note.ID),
		zap.String("tenant_id", note.TenantID),
		zap.String("user_id", note.UserID))

	return c.JSON(http.StatusCreated, note)
}

// List returns the caller's tenant's notes, newest first.
func (h *NoteHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("list")

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes, err := h.store.ListNotesByTenant(c.Request().Context(), claims.TenantID)
	if err != nil {
		log.Error("Failed to list notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	return c.JSON(http.StatusOK, notes)
}

// Get returns a single note by id within the caller's tenant.
func (h *NoteHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("get")

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	note, err := h.store.GetNote(c.Request().Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "note not found or not accessible"})
		}
		log.Error("Failed to fetch note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	return c.JSON(http.StatusOK, note)
}

// Update modifies a note's title and/or content within the caller's tenant.
func (h *NoteHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("update")

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	if req.Title != nil && *req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	note, err := h.store.UpdateNote(c.Request().Context(), claims.TenantID, c.Param("id"), store.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "note not found or not accessible"})
		}
		log.Error("Failed to update note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	return c.JSON(http.StatusOK, note)
}

// Delete removes a note within the caller's tenant.
func (h *NoteHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("delete")

	claims, ok := middleware.Identity(c)
	if !ok {
		prometheus.RecordAuthError("not_authenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.store.DeleteNote(c.Request().Context(), claims.TenantID, c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "note not found or not accessible"})
		}
		log.Error("Failed to delete note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	return c.NoContent(http.StatusNoContent)
}
