package gamification

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateBatch inserts all objectives in one transaction.
func (s *PostgresStore) CreateBatch(ctx context.Context, objectives []*Objective) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range objectives {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO objectives (id, user_id, type, level, target, progress, completed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, o.UserID, string(o.Type), o.Level, o.Target, o.Progress, o.Completed, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert objective: %w", err)
		}
	}
	return tx.Commit()
}

// ListByUser returns the user's objectives ordered by type and level.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Objective, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, level, target, progress, completed, created_at
		FROM objectives WHERE user_id = $1 ORDER BY type, level`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Objective
	for rows.Next() {
		var (
			o   Objective
			typ string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &typ, &o.Level, &o.Target, &o.Progress, &o.Completed, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Type = ObjectiveType(typ)
		out = append(out, &o)
	}
	return out, rows.Err()
}
