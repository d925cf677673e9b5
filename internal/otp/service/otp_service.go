// Package service implements passcode issuance, verification, and supersession.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"braintrain/backend/internal/otp/domain"
	otprepo "braintrain/backend/internal/otp/repository"
)

// Passcode lifetime from creation to expiry.
const codeTTL = 5 * time.Minute

const codeDigits = 4

// maxGenerateAttempts bounds the retry loop when the 4-digit space is crowded.
const maxGenerateAttempts = 100

// Sentinel errors for passcode verification; the orchestrator maps them to API error codes.
var (
	ErrCodeNotFound         = errors.New("passcode not found")
	ErrCodeAlreadyConfirmed = errors.New("passcode already confirmed")
	ErrCodeExpired          = errors.New("passcode expired")
)

// Repo is the passcode repository surface needed by the service.
type Repo interface {
	GetByCode(ctx context.Context, code string) (*domain.Passcode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	GetUnconfirmedByUser(ctx context.Context, userID string) (*domain.Passcode, error)
	Create(ctx context.Context, p *domain.Passcode) error
	SetConfirmedAt(ctx context.Context, id string, at time.Time) error
}

var _ Repo = (otprepo.Repository)(nil)

// Service issues and verifies passcodes.
type Service struct {
	repo Repo
	now  func() time.Time
}

// NewService returns a passcode service backed by repo.
func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the service clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue generates a 4-digit code unique among all stored passcodes (confirmed
// or not), persists it with a 5-minute expiry, and returns it. Generation
// retries on collision; the unique constraint on the code column backstops
// concurrent issuers.
func (s *Service) Issue(ctx context.Context, userID string) (*domain.Passcode, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		now := s.now()
		p := &domain.Passcode{
			ID:        uuid.New().String(),
			Code:      code,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(codeTTL),
		}
		if err := s.repo.Create(ctx, p); err != nil {
			if errors.Is(err, otprepo.ErrDuplicateCode) {
				continue // lost the check-then-insert race; draw again
			}
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("otp: no unique code after %d attempts", maxGenerateAttempts)
}

// Verify looks up the code and, when it is unconfirmed and unexpired, marks it
// confirmed exactly once and returns it so the caller can run activation side
// effects. Failures are ErrCodeNotFound, ErrCodeAlreadyConfirmed, or ErrCodeExpired.
func (s *Service) Verify(ctx context.Context, code string) (*domain.Passcode, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrCodeNotFound
	}
	if p.Confirmed() {
		return nil, ErrCodeAlreadyConfirmed
	}
	now := s.now()
	if p.Expired(now) {
		return nil, ErrCodeExpired
	}
	if err := s.repo.SetConfirmedAt(ctx, p.ID, now); err != nil {
		return nil, err
	}
	p.ConfirmedAt = &now
	return p, nil
}

// InvalidateUnconfirmed supersedes the user's outstanding passcode, if any, by
// setting its confirmed-at timestamp. Supersession is not activation: the
// account stays disabled. Returns nil when there was nothing to invalidate.
func (s *Service) InvalidateUnconfirmed(ctx context.Context, userID string) error {
	p, err := s.repo.GetUnconfirmedByUser(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return s.repo.SetConfirmedAt(ctx, p.ID, s.now())
}

// generateCode draws a uniformly random fixed-width numeric code using crypto/rand.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
