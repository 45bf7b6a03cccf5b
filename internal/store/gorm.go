package store

import (
	"context"
	"errors"

	"notes-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the production Store backed by PostgreSQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on top of an initialized GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	result := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? AND tenant_id = ?", user.Email, user.TenantID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) FindTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	result := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &tenant, nil
}

func (s *GormStore) FindTenantByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	result := s.db.WithContext(ctx).Where("id = ?", id).First(&tenant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &tenant, nil
}

func (s *GormStore) CreateTenant(ctx context.Context, tenant *model.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

// UpgradeTenantPlan flips the plan FREE -> PRO with a single conditional
// UPDATE, so concurrent readers only ever observe FREE or PRO, never a
// half-applied state. A no-op update (already PRO) is not an error.
func (s *GormStore) UpgradeTenantPlan(ctx context.Context, id string) (*model.Tenant, error) {
	result := s.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("id = ? AND plan = ?", id, model.PlanFree).
		Update("plan", model.PlanPro)
	if result.Error != nil {
		return nil, result.Error
	}
	return s.FindTenantByID(ctx, id)
}

func (s *GormStore) CountNotesByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Note{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// CreateNote inserts the note inside a transaction that locks the owning
// tenant's row. Holding the row lock across the count and the insert
// serializes note creation per tenant, which is what closes the
// count-then-create race: two concurrent creates for the same FREE tenant
// cannot both observe count=2 and both commit. Creations for other tenants
// take different row locks and proceed in parallel.
func (s *GormStore) CreateNote(ctx context.Context, note *model.Note) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", note.TenantID).
			First(&tenant)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return result.Error
		}

		if tenant.Plan == model.PlanFree {
			var count int64
			if err := tx.Model(&model.Note{}).
				Where("tenant_id = ?", note.TenantID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= model.FreePlanNoteLimit {
				return ErrQuotaExceeded
			}
		}

		return tx.Create(note).Error
	})
}

func (s *GormStore) ListNotesByTenant(ctx context.Context, tenantID string) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *GormStore) GetNote(ctx context.Context, tenantID, id string) (*model.Note, error) {
	var note model.Note
	result := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&note)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &note, nil
}

// UpdateNote applies the update with the tenant filter in the WHERE clause,
// so a note belonging to another tenant reports not-found rather than
// leaking its existence.
func (s *GormStore) UpdateNote(ctx context.Context, tenantID, id string, update NoteUpdate) (*model.Note, error) {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Content != nil {
		fields["content"] = *update.Content
	}

	if len(fields) > 0 {
		result := s.db.WithContext(ctx).Model(&model.Note{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetNote(ctx, tenantID, id)
}

func (s *GormStore) DeleteNote(ctx context.Context, tenantID, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
