package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"braintrain/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, phone, password_hash, role, enabled, locked, full_name, dob, gender, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPhone returns the user for the canonical phone number, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, phone, password_hash, role, enabled, locked, full_name, dob, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Phone, u.PasswordHash, string(u.Role), u.Enabled, u.Locked,
		nullString(u.FullName), nullTime(u.DOB), nullString(u.Gender), u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// SetEnabled updates the enabled flag for the user with the given id.
func (r *PostgresRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET enabled = $2, updated_at = $3 WHERE id = $1`,
		id, enabled, time.Now().UTC(),
	)
	return err
}

// UpdatePasswordHash updates the password hash for the user with the given id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC(),
	)
	return err
}

// UpdateProfile updates full name, date of birth, and gender for the user.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = $2, dob = $3, gender = $4, updated_at = $5 WHERE id = $1`,
		u.ID, nullString(u.FullName), nullTime(u.DOB), nullString(u.Gender), time.Now().UTC(),
	)
	return err
}

// Delete removes the user row. Passcodes, tokens, and objectives cascade at the
// schema level, but callers should delete them explicitly through their stores first.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u        domain.User
		role     string
		fullName sql.NullString
		dob      sql.NullTime
		gender   sql.NullString
	)
	err := row.Scan(&u.ID, &u.Phone, &u.PasswordHash, &role, &u.Enabled, &u.Locked,
		&fullName, &dob, &gender, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	u.FullName = fullName.String
	if dob.Valid {
		t := dob.Time
		u.DOB = &t
	}
	u.Gender = gender.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
