package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"notes-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, s *MemoryStore, slug string, plan model.Plan) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Slug: slug, Name: slug, Plan: plan}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

func TestCreateNoteEnforcesFreePlanLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tenant := seedTenant(t, s, "acme", model.PlanFree)

	for i := 0; i < model.FreePlanNoteLimit; i++ {
		note := &model.Note{Title: fmt.Sprintf("note %d", i), TenantID: tenant.ID, UserID: "user-1"}
		require.NoError(t, s.CreateNote(ctx, note))
	}

	over := &model.Note{Title: "one too many", TenantID: tenant.ID, UserID: "user-1"}
	assert.ErrorIs(t, s.CreateNote(ctx, over), ErrQuotaExceeded)

	count, err := s.CountNotesByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, model.FreePlanNoteLimit, count)
}

func TestCreateNoteProPlanUnrestricted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tenant := seedTenant(t, s, "acme", model.PlanPro)

	for i := 0; i < model.FreePlanNoteLimit*3; i++ {
		note := &model.Note{Title: fmt.Sprintf("note %d", i), TenantID: tenant.ID, UserID: "user-1"}
		require.NoError(t, s.CreateNote(ctx, note))
	}
}

// The limit must hold for any interleaving of concurrent creations.
func TestCreateNoteConcurrentNeverOvershootsLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tenant := seedTenant(t, s, "acme", model.PlanFree)

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			note := &model.Note{Title: fmt.Sprintf("racer %d", i), TenantID: tenant.ID, UserID: "user-1"}
			errs[i] = s.CreateNote(ctx, note)
		}(i)
	}
	wg.Wait()

	var created, denied int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case assert.ErrorIs(t, err, ErrQuotaExceeded):
			denied++
		}
	}

	assert.Equal(t, model.FreePlanNoteLimit, created)
	assert.Equal(t, attempts-model.FreePlanNoteLimit, denied)

	count, err := s.CountNotesByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, model.FreePlanNoteLimit, count)
}

// Tenants are independent units of concurrency: a full tenant must not
// block another tenant's creations.
func TestCreateNoteTenantsIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	acme := seedTenant(t, s, "acme", model.PlanFree)
	globex := seedTenant(t, s, "globex", model.PlanFree)

	for i := 0; i < model.FreePlanNoteLimit; i++ {
		require.NoError(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: acme.ID, UserID: "u"}))
	}
	assert.ErrorIs(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: acme.ID, UserID: "u"}), ErrQuotaExceeded)

	assert.NoError(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: globex.ID, UserID: "u"}))
}

func TestUpgradeTenantPlanIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tenant := seedTenant(t, s, "acme", model.PlanFree)

	first, err := s.UpgradeTenantPlan(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, first.Plan)

	second, err := s.UpgradeTenantPlan(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, second.Plan)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpgradeLiftsQuota(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tenant := seedTenant(t, s, "acme", model.PlanFree)

	for i := 0; i < model.FreePlanNoteLimit; i++ {
		require.NoError(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: tenant.ID, UserID: "u"}))
	}
	require.ErrorIs(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: tenant.ID, UserID: "u"}), ErrQuotaExceeded)

	_, err := s.UpgradeTenantPlan(ctx, tenant.ID)
	require.NoError(t, err)

	assert.NoError(t, s.CreateNote(ctx, &model.Note{Title: "n", TenantID: tenant.ID, UserID: "u"}))
}

// A note that exists under another tenant must be indistinguishable from
// one that does not exist at all.
func TestNoteAccessIsTenantScoped(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	acme := seedTenant(t, s, "acme", model.PlanPro)
	globex := seedTenant(t, s, "globex", model.PlanPro)

	note := &model.Note{Title: "secret", TenantID: globex.ID, UserID: "u"}
	require.NoError(t, s.CreateNote(ctx, note))

	_, err := s.GetNote(ctx, acme.ID, note.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetNote(ctx, acme.ID, "no-such-note")
	assert.ErrorIs(t, err, ErrNotFound)

	title := "hijack"
	_, err = s.UpdateNote(ctx, acme.ID, note.ID, NoteUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteNote(ctx, acme.ID, note.ID), ErrNotFound)

	// Untouched under its own tenant
	got, err := s.GetNote(ctx, globex.ID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)
}

func TestCreateUserRejectsDuplicatePerTenant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	acme := seedTenant(t, s, "acme", model.PlanFree)
	globex := seedTenant(t, s, "globex", model.PlanFree)

	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "user@test", PasswordHash: "h", Role: model.RoleMember, TenantID: acme.ID}))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Email: "user@test", PasswordHash: "h", Role: model.RoleMember, TenantID: acme.ID}), ErrDuplicateEmail)

	// Same email under a different tenant is a distinct user
	assert.NoError(t, s.CreateUser(ctx, &model.User{Email: "user@test", PasswordHash: "h", Role: model.RoleMember, TenantID: globex.ID}))
}

func TestListNotesByTenantFiltered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	acme := seedTenant(t, s, "acme", model.PlanPro)
	globex := seedTenant(t, s, "globex", model.PlanPro)

	require.NoError(t, s.CreateNote(ctx, &model.Note{Title: "a1", TenantID: acme.ID, UserID: "u"}))
	require.NoError(t, s.CreateNote(ctx, &model.Note{Title: "g1", TenantID: globex.ID, UserID: "u"}))

	notes, err := s.ListNotesByTenant(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a1", notes[0].Title)
}
