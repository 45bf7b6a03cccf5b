package main

import (
	"context"
	"errors"

	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/config"
	"notes-service/pkg/database"
	"notes-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seeds the database with two demo tenants and their users. Safe to run
// repeatedly: existing tenants and users are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	st := store.NewGormStore(db)
	ctx := context.Background()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash seed password", zap.Error(err))
	}

	acme := ensureTenant(ctx, log, st, "acme", "Acme Corporation")
	globex := ensureTenant(ctx, log, st, "globex", "Globex Inc.")

	ensureUser(ctx, log, st, "admin@acme.test", model.RoleAdmin, acme, string(passwordHash))
	member := ensureUser(ctx, log, st, "user@acme.test", model.RoleMember, acme, string(passwordHash))
	ensureUser(ctx, log, st, "admin@globex.test", model.RoleAdmin, globex, string(passwordHash))
	ensureUser(ctx, log, st, "user@globex.test", model.RoleMember, globex, string(passwordHash))

	// A couple of starter notes for the acme member, only on first run
	count, err := st.CountNotesByTenant(ctx, acme.ID)
	if err != nil {
		log.Fatal("Failed to count notes", zap.Error(err))
	}
	if count == 0 {
		for _, title := range []string{"Acme Initial Note 1", "Acme Initial Note 2"} {
			note := model.Note{
				Title:    title,
				Content:  "Seeded starter note.",
				TenantID: acme.ID,
				UserID:   member.ID,
			}
			if err := st.CreateNote(ctx, &note); err != nil {
				log.Fatal("Failed to seed note", zap.Error(err), zap.String("title", title))
			}
		}
	}

	log.Info("Seed complete",
		zap.String("acme_tenant_id", acme.ID),
		zap.String("globex_tenant_id", globex.ID))
}

func ensureTenant(ctx context.Context, log *zap.Logger, st store.Store, slug, name string) *model.Tenant {
	tenant, err := st.FindTenantBySlug(ctx, slug)
	if err == nil {
		return tenant
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Fatal("Failed to look up tenant", zap.Error(err), zap.String("slug", slug))
	}

	tenant = &model.Tenant{Slug: slug, Name: name, Plan: model.PlanFree}
	if err := st.CreateTenant(ctx, tenant); err != nil {
		log.Fatal("Failed to create tenant", zap.Error(err), zap.String("slug", slug))
	}
	log.Info("Tenant created", zap.String("slug", slug), zap.String("id", tenant.ID))
	return tenant
}

func ensureUser(ctx context.Context, log *zap.Logger, st store.Store, email string, role model.Role, tenant *model.Tenant, passwordHash string) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		TenantID:     tenant.ID,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			existing, findErr := st.FindUserByEmail(ctx, email)
			if findErr != nil {
				log.Fatal("Failed to load existing user", zap.Error(findErr), zap.String("email", email))
			}
			return existing
		}
		log.Fatal("Failed to create user", zap.Error(err), zap.String("email", email))
	}
	log.Info("User created", zap.String("email", email), zap.String("role", string(role)))
	return user
}
