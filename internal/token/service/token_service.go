package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"braintrain/backend/internal/token/domain"
	tokenrepo "braintrain/backend/internal/token/repository"
)

// Store is the subset of token persistence the revocation engine needs.
type Store interface {
	GetByValue(ctx context.Context, token string) (*domain.IssuedToken, error)
	ListLiveByUser(ctx context.Context, userID string) ([]*domain.IssuedToken, error)
	Rotate(ctx context.Context, userID string, newToken *domain.IssuedToken) error
	Revoke(ctx context.Context, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}

var _ Store = (tokenrepo.Repository)(nil)

// Service maintains the revocation state of issued access tokens. Signature
// validity is the token provider's concern; this service only answers whether
// a given token value is still allowed to authorize requests.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rotate records tokenValue as the user's single live token, retiring every
// previously live record in the same transaction.
func (s *Service) Rotate(ctx context.Context, userID, tokenValue string) error {
	rec := &domain.IssuedToken{
		ID:        uuid.NewString(),
		Token:     tokenValue,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	return s.store.Rotate(ctx, userID, rec)
}

// IsLive reports whether tokenValue has a record with both flags still false.
// Unknown tokens are not live: a record must exist for the token to pass.
func (s *Service) IsLive(ctx context.Context, tokenValue string) (bool, error) {
	rec, err := s.store.GetByValue(ctx, tokenValue)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return rec.Live(), nil
}

// Deactivate retires the record for tokenValue, if one exists. It reports
// whether a live record was actually retired; deactivating an unknown or
// already-dead token is not an error, so logout stays idempotent.
func (s *Service) Deactivate(ctx context.Context, tokenValue string) (bool, error) {
	rec, err := s.store.GetByValue(ctx, tokenValue)
	if err != nil {
		return false, err
	}
	if rec == nil || !rec.Live() {
		return false, nil
	}
	if err := s.store.Revoke(ctx, rec.ID); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeAll retires every live token the user holds, without issuing a new one.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	live, err := s.store.ListLiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, rec := range live {
		if err := s.store.Revoke(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}

// PurgeUser deletes every token record the user owns. Called by account deletion.
func (s *Service) PurgeUser(ctx context.Context, userID string) error {
	return s.store.DeleteAllByUser(ctx, userID)
}
