package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"braintrain/backend/internal/token/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an issued-token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = `id, token, user_id, expired, revoked, created_at`

// GetByValue returns the record for the token string, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByValue(ctx context.Context, token string) (*domain.IssuedToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE token = $1`, token)
	var t domain.IssuedToken
	err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.Expired, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListLiveByUser returns the user's records with both flags false.
func (r *PostgresRepository) ListLiveByUser(ctx context.Context, userID string) ([]*domain.IssuedToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE user_id = $1 AND expired = FALSE AND revoked = FALSE`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.IssuedToken
	for rows.Next() {
		var t domain.IssuedToken
		if err := rows.Scan(&t.ID, &t.Token, &t.UserID, &t.Expired, &t.Revoked, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Rotate retires every live record for the user and inserts newToken, in one
// transaction. A crash between the two statements rolls both back, so the user
// never ends up with zero or two live tokens.
func (r *PostgresRepository) Rotate(ctx context.Context, userID string, newToken *domain.IssuedToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tokens SET expired = TRUE, revoked = TRUE WHERE user_id = $1 AND expired = FALSE AND revoked = FALSE`,
		userID,
	); err != nil {
		return fmt.Errorf("retire live tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tokens (id, token, user_id, expired, revoked, created_at) VALUES ($1, $2, $3, FALSE, FALSE, $4)`,
		newToken.ID, newToken.Token, newToken.UserID, newToken.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return tx.Commit()
}

// Revoke sets both expired and revoked on the record with the given id.
// Flags only move from false to true here; nothing resets them.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tokens SET expired = TRUE, revoked = TRUE WHERE id = $1`, id)
	return err
}

// DeleteAllByUser removes every record owned by the user. Called by account deletion.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	return err
}
