package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"braintrain/backend/internal/otp/domain"
)

// Postgres unique_violation error code.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a passcode repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const otpColumns = `id, code, user_id, created_at, expires_at, confirmed_at`

// GetByCode returns the passcode with the given code value, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Passcode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+otpColumns+` FROM otps WHERE code = $1`, code)
	return scanPasscode(row)
}

// ExistsByCode reports whether any stored passcode has the given code value.
func (r *PostgresRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM otps WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// GetUnconfirmedByUser returns the user's passcode with confirmed_at unset, or nil if none.
func (r *PostgresRepository) GetUnconfirmedByUser(ctx context.Context, userID string) (*domain.Passcode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+otpColumns+` FROM otps WHERE user_id = $1 AND confirmed_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	return scanPasscode(row)
}

// Create persists the passcode to the database. The passcode must have ID set.
// A unique-constraint violation on the code column is reported as ErrDuplicateCode.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Passcode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otps (id, code, user_id, created_at, expires_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Code, p.UserID, p.CreatedAt, p.ExpiresAt, confirmedAtToNull(p.ConfirmedAt),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCode
	}
	return err
}

// SetConfirmedAt marks the passcode as confirmed (activated or superseded) at the given time.
func (r *PostgresRepository) SetConfirmedAt(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE otps SET confirmed_at = $2 WHERE id = $1`, id, at)
	return err
}

// DeleteAllByUser removes every passcode owned by the user. Called by account deletion.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE user_id = $1`, userID)
	return err
}

func scanPasscode(row *sql.Row) (*domain.Passcode, error) {
	var (
		p           domain.Passcode
		confirmedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Code, &p.UserID, &p.CreatedAt, &p.ExpiresAt, &confirmedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		p.ConfirmedAt = &t
	}
	return &p, nil
}

func confirmedAtToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
