package store

import (
	"context"
	"errors"

	"notes-service/internal/model"
)

var (
	// ErrNotFound covers both "record absent" and "record owned by another
	// tenant" — callers must not be able to tell the two apart.
	ErrNotFound = errors.New("record not found")

	// ErrQuotaExceeded is returned by CreateNote when a FREE tenant is at
	// its note limit at the moment of insertion.
	ErrQuotaExceeded = errors.New("note quota exceeded")

	// ErrDuplicateEmail is returned when a user with the same (email, tenant)
	// pair already exists.
	ErrDuplicateEmail = errors.New("email already registered for tenant")
)

// NoteUpdate carries the mutable note fields; nil means "leave unchanged".
type NoteUpdate struct {
	Title   *string
	Content *string
}

// Store is the persistence capability consumed by handlers and gates.
// Implementations must make CreateNote atomic with respect to other note
// creations for the same tenant: the persisted note count of a FREE tenant
// never exceeds model.FreePlanNoteLimit, under any interleaving.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error

	FindTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	FindTenantByID(ctx context.Context, id string) (*model.Tenant, error)
	CreateTenant(ctx context.Context, tenant *model.Tenant) error

	// UpgradeTenantPlan transitions the tenant FREE -> PRO and returns the
	// resulting tenant. Upgrading an already-PRO tenant is a no-op success.
	UpgradeTenantPlan(ctx context.Context, id string) (*model.Tenant, error)

	CountNotesByTenant(ctx context.Context, tenantID string) (int64, error)

	// CreateNote inserts the note, enforcing the FREE-plan quota for the
	// owning tenant as part of the same atomic operation.
	CreateNote(ctx context.Context, note *model.Note) error

	ListNotesByTenant(ctx context.Context, tenantID string) ([]model.Note, error)
	GetNote(ctx context.Context, tenantID, id string) (*model.Note, error)
	UpdateNote(ctx context.Context, tenantID, id string, update NoteUpdate) (*model.Note, error)
	DeleteNote(ctx context.Context, tenantID, id string) error
}
