// Command seed creates the admin account from SEED_ADMIN_PHONE and
// SEED_ADMIN_PASSWORD. Running it against an already-seeded database is a no-op.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"braintrain/backend/internal/config"
	"braintrain/backend/internal/db"
	"braintrain/backend/internal/phone"
	"braintrain/backend/internal/security"
	userdomain "braintrain/backend/internal/user/domain"
	userrepo "braintrain/backend/internal/user/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.SeedAdminPhone == "" || cfg.SeedAdminPassword == "" {
		return errors.New("SEED_ADMIN_PHONE and SEED_ADMIN_PASSWORD must be set")
	}
	canonical := phone.Normalize(cfg.SeedAdminPhone)
	if !phone.Valid(canonical) {
		return errors.New("SEED_ADMIN_PHONE is not a valid phone number")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	users := userrepo.NewPostgresRepository(database)
	existing, err := users.GetByPhone(ctx, canonical)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("admin %s already present", canonical)
		return nil
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(cfg.SeedAdminPassword))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &userdomain.User{
		ID:           uuid.NewString(),
		Phone:        canonical,
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("seeded admin %s", canonical)
	return nil
}
