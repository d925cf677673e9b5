package repository

import (
	"context"

	"braintrain/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}
