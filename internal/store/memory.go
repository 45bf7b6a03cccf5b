package store

import (
	"context"
	"sort"
	"sync"

	"notes-service/internal/model"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local development.
// It mirrors the GormStore's concurrency contract: a per-tenant mutex is
// held across the quota count and the insert, so note creation is
// serialized per tenant while tenants stay independent of each other.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*model.Tenant
	users   map[string]*model.User
	notes   map[string]*model.Note

	tenantMu sync.Mutex
	locks    map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[string]*model.Tenant),
		users:   make(map[string]*model.User),
		notes:   make(map[string]*model.Note),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) tenantLock(tenantID string) *sync.Mutex {
	s.tenantMu.Lock()
	defer s.tenantMu.Unlock()
	lock, ok := s.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[tenantID] = lock
	}
	return lock
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email && existing.TenantID == user.TenantID {
			return ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) FindTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tenant := range s.tenants {
		if tenant.Slug == slug {
			copied := *tenant
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTenantByID(ctx context.Context, id string) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (s *MemoryStore) CreateTenant(ctx context.Context, tenant *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.Plan == "" {
		tenant.Plan = model.PlanFree
	}
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *MemoryStore) UpgradeTenantPlan(ctx context.Context, id string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	tenant.Plan = model.PlanPro
	copied := *tenant
	return &copied, nil
}

func (s *MemoryStore) CountNotesByTenant(ctx context.Context, tenantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countNotesLocked(tenantID), nil
}

func (s *MemoryStore) countNotesLocked(tenantID string) int64 {
	var count int64
	for _, note := range s.notes {
		if note.TenantID == tenantID {
			count++
		}
	}
	return count
}

func (s *MemoryStore) CreateNote(ctx context.Context, note *model.Note) error {
	// Serialize creations per tenant across the count and the insert.
	lock := s.tenantLock(note.TenantID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.tenants[note.TenantID]
	if !ok {
		return ErrNotFound
	}
	if tenant.Plan == model.PlanFree && s.countNotesLocked(note.TenantID) >= model.FreePlanNoteLimit {
		return ErrQuotaExceeded
	}

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	copied := *note
	s.notes[note.ID] = &copied
	return nil
}

func (s *MemoryStore) ListNotesByTenant(ctx context.Context, tenantID string) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := make([]model.Note, 0)
	for _, note := range s.notes {
		if note.TenantID == tenantID {
			notes = append(notes, *note)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *MemoryStore) GetNote(ctx context.Context, tenantID, id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return nil, ErrNotFound
	}
	copied := *note
	return &copied, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, tenantID, id string, update NoteUpdate) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	copied := *note
	return &copied, nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}
