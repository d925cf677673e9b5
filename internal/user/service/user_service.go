package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"braintrain/backend/internal/phone"
	"braintrain/backend/internal/user/domain"
)

// ErrUserNotFound is returned when no account matches the given id or phone.
var ErrUserNotFound = errors.New("user not found")

// Store is the account persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

// OwnedStore deletes all rows belonging to an account. The passcode and token
// stores both satisfy it; account deletion sweeps them before the user row.
type OwnedStore interface {
	DeleteAllByUser(ctx context.Context, userID string) error
}

// Service handles account profile reads, updates, and deletion.
type Service struct {
	users     Store
	passcodes OwnedStore
	tokens    OwnedStore
}

func NewService(users Store, passcodes, tokens OwnedStore) *Service {
	return &Service{users: users, passcodes: passcodes, tokens: tokens}
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile sets full name, date of birth, and gender on the account with
// the given phone number.
func (s *Service) UpdateProfile(ctx context.Context, rawPhone, fullName string, dob *time.Time, gender string) (*domain.User, error) {
	canonical := phone.Normalize(rawPhone)
	user, err := s.users.GetByPhone(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("look up phone: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.FullName = fullName
	user.DOB = dob
	user.Gender = gender
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// Delete removes the account and everything it owns: passcodes and issued
// tokens go first, then the user row.
func (s *Service) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.passcodes.DeleteAllByUser(ctx, id); err != nil {
		return fmt.Errorf("delete passcodes: %w", err)
	}
	if err := s.tokens.DeleteAllByUser(ctx, id); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
