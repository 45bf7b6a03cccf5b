package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is a tenant's subscription tier, gating resource quotas.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// FreePlanNoteLimit is the maximum number of notes a FREE-plan tenant may hold.
const FreePlanNoteLimit = 3

// QuotaExceededMessage is the denial message for a FREE tenant at the note limit.
const QuotaExceededMessage = "Free plan limit reached (max 3 notes). Upgrade to Pro for unlimited notes."

// Tenant represents an isolated organization stored in the database
// This is the core of our multi-tenant architecture: every user and note
// belongs to exactly one tenant, and requests never cross tenant boundaries
type Tenant struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Slug      string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Plan      Plan      `json:"plan" gorm:"type:varchar(10);not null;default:'FREE'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
