// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/model"
)

// UserFilter narrows and pages List results. Nil fields are not filtered on.
type UserFilter struct {
	Role   *model.Role
	Active *bool
	Page   int
	Limit  int
}

// UserRepository provides CRUD access for accounts.
type UserRepository interface {
	// Create inserts a new user. Returns errs.ErrAlreadyExists on a duplicate
	// email or username.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by (already normalized) email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns a page of users plus the unpaged total.
	List(ctx context.Context, f UserFilter) ([]model.User, int, error)
	// Update persists every mutable column of the given user.
	Update(ctx context.Context, u *model.User) error
	// TouchLastLogin records a successful authentication.
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// Delete removes a user row.
	Delete(ctx context.Context, id uuid.UUID) error
}
