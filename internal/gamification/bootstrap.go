package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists objectives.
type Store interface {
	CreateBatch(ctx context.Context, objectives []*Objective) error
	ListByUser(ctx context.Context, userID string) ([]*Objective, error)
}

// Bootstrapper seeds a new account with the default objective ladder.
type Bootstrapper struct {
	store Store
}

func NewBootstrapper(store Store) *Bootstrapper {
	return &Bootstrapper{store: store}
}

// Initialize creates the default objectives for the user. Re-activating an
// account that already has objectives is a no-op.
func (b *Bootstrapper) Initialize(ctx context.Context, userID string) error {
	existing, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list objectives: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	var objectives []*Objective
	for typ, targets := range defaultTargets {
		for i, target := range targets {
			objectives = append(objectives, &Objective{
				ID:        uuid.NewString(),
				UserID:    userID,
				Type:      typ,
				Level:     i + 1,
				Target:    target,
				CreatedAt: now,
			})
		}
	}
	if err := b.store.CreateBatch(ctx, objectives); err != nil {
		return fmt.Errorf("create objectives: %w", err)
	}
	return nil
}
