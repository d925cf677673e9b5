package repository

import (
	"context"

	"braintrain/backend/internal/token/domain"
)

// Repository defines persistence for issued-token revocation records.
type Repository interface {
	GetByValue(ctx context.Context, token string) (*domain.IssuedToken, error)
	// ListLiveByUser returns the user's records with expired = false AND
	// revoked = false. Both flags must be false; matching on either alone
	// over-selects and breaks the one-live-token invariant.
	ListLiveByUser(ctx context.Context, userID string) ([]*domain.IssuedToken, error)
	// Rotate atomically retires every live record for the user and inserts
	// newToken as the single live one. Runs as one transaction so concurrent
	// logins cannot leave two live tokens or none.
	Rotate(ctx context.Context, userID string, newToken *domain.IssuedToken) error
	// Revoke sets both expired and revoked on the record with the given id.
	Revoke(ctx context.Context, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
