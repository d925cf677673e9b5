package repository

import (
	"context"
	"errors"
	"time"

	"braintrain/backend/internal/otp/domain"
)

// ErrDuplicateCode is returned by Create when another passcode already holds
// the code value (unique-constraint backstop for concurrent issuers).
var ErrDuplicateCode = errors.New("passcode code already exists")

// Repository defines persistence for passcodes.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Passcode, error)
	// ExistsByCode reports whether any stored passcode, confirmed or not, has
	// the given code value. Uniqueness is over all rows, not just active ones.
	ExistsByCode(ctx context.Context, code string) (bool, error)
	GetUnconfirmedByUser(ctx context.Context, userID string) (*domain.Passcode, error)
	Create(ctx context.Context, p *domain.Passcode) error
	SetConfirmedAt(ctx context.Context, id string, at time.Time) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
