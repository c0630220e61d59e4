package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// UserUpdateInput carries the mutable profile fields. Nil means unchanged.
// Role and Active are applied only when the actor is an administrator.
type UserUpdateInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	CompanyName *string
	Role        *model.Role
	Active      *bool
}

// UserService manages accounts beyond authentication.
type UserService interface {
	// List returns a page of accounts. Admin only.
	List(ctx context.Context, actor *model.User, f repository.UserFilter) ([]model.User, int, error)
	// Get loads one account.
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Update applies profile changes; only the owner or an admin may update,
	// and role/active changes require admin.
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in UserUpdateInput) (*model.User, error)
	// Delete removes an account. Admin only; admins cannot delete themselves.
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type UserServiceImpl struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users, now: time.Now}
}

// List returns accounts matching the filter. Admin only.
func (s *UserServiceImpl) List(ctx context.Context, actor *model.User, f repository.UserFilter) ([]model.User, int, error) {
	if actor.Role != model.RoleAdmin {
		return nil, 0, fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	}
	return s.users.List(ctx, f)
}

// Get loads one account.
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies profile changes with the original's access rules: self or
// admin may edit; role and active flag silently require admin.
func (s *UserServiceImpl) Update(ctx context.Context, actor *model.User, id uuid.UUID, in UserUpdateInput) (*model.User, error) {
	if actor.ID != id && actor.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot update another user", errs.ErrForbidden)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, fmt.Errorf("%w: firstName cannot be empty", errs.ErrValidation)
		}
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, fmt.Errorf("%w: lastName cannot be empty", errs.ErrValidation)
		}
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !emailRe.MatchString(email) {
			return nil, fmt.Errorf("%w: invalid email format", errs.ErrValidation)
		}
		if email != u.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%w: email already registered", errs.ErrAlreadyExists)
			} else if !errors.Is(err, errs.ErrNotFound) {
				return nil, err
			}
			u.Email = email
		}
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.CompanyName != nil {
		u.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if actor.Role == model.RoleAdmin {
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.Active != nil {
			u.Active = *in.Active
		}
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account. The admin check lives here because the route gate
// alone cannot express "not yourself".
func (s *UserServiceImpl) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", errs.ErrValidation)
	}
	return s.users.Delete(ctx, id)
}
