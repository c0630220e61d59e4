package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_hash, first_name, last_name, company_name, phone, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.CompanyName, &u.Phone, &u.Role, &u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, first_name, last_name, company_name, phone, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName,
		u.LastName, u.CompanyName, u.Phone, u.Role, u.Active, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email. The caller normalizes case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// List selects a page of users plus the unpaged total.
func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]model.User, int, error) {
	where, args := "", []any{}
	if f.Role != nil {
		args = append(args, *f.Role)
		where += fmt.Sprintf(" AND role=$%d", len(args))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where += fmt.Sprintf(" AND is_active=$%d", len(args))
	}

	var total int
	countQ := `SELECT count(*) FROM users WHERE true` + where
	if err := r.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageLimit(f.Limit), pageOffset(f.Page, f.Limit))
	q := fmt.Sprintf(`SELECT `+userColumns+` FROM users WHERE true%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// Update persists every mutable column.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users
SET username=$2, email=$3, password_hash=$4, first_name=$5, last_name=$6,
    company_name=$7, phone=$8, role=$9, is_active=$10, updated_at=$11
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName,
		u.LastName, u.CompanyName, u.Phone, u.Role, u.Active, u.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful authentication.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE users SET last_login_at=$2 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, at)
	return err
}

// Delete removes a user row.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
