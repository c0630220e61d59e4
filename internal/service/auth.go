// Package service contains the application services: authentication, users,
// crops, and sensor ingestion.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/orusagri/agrimon/internal/crypto"
	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
)

// TokenIssuer mints session tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// passwordHasher is swapped for a fake in tests to observe call ordering.
type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type bcryptHasher struct{}

func (bcryptHasher) Hash(password string) (string, error) { return pkgcrypto.HashPassword(password) }
func (bcryptHasher) Verify(hash, password string) bool {
	return pkgcrypto.VerifyPassword(hash, password)
}

// RegisterInput is the raw registration request. Username is optional and
// derived from the email local part when absent.
type RegisterInput struct {
	Username    string
	FirstName   string
	LastName    string
	Email       string
	Password    string
	CompanyName string
	Phone       *string
}

// AuthService defines registration, login, and credential management.
type AuthService interface {
	// Register validates input, creates the account, and mints a session token.
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	// Login authenticates by email and password and mints a session token.
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	// Me returns the current account view.
	Me(ctx context.Context, id uuid.UUID) (*model.User, error)
	// UpdatePassword changes the caller's own password after verifying the
	// current one.
	UpdatePassword(ctx context.Context, actorID, targetID uuid.UUID, current, next string) error
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens TokenIssuer
	hasher passwordHasher
	now    func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, hasher: bcryptHasher{}, now: time.Now}
}

// Register validates every field before any storage write, forces the default
// role regardless of client input, and hashes the password before the record is
// built so plaintext never reaches the repository.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Username = strings.TrimSpace(in.Username)

	required := []struct{ field, value string }{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"email", in.Email},
		{"password", strings.TrimSpace(in.Password)},
		{"companyName", in.CompanyName},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, "", fmt.Errorf("%w: %s is required", errs.ErrValidation, r.field)
		}
	}
	if !emailRe.MatchString(in.Email) {
		return nil, "", fmt.Errorf("%w: invalid email format", errs.ErrValidation)
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(in.Email)
	username := in.Username
	if username == "" {
		username = deriveUsername(email)
	} else if !usernameRe.MatchString(username) {
		return nil, "", fmt.Errorf("%w: username must be 3-50 characters of letters, digits, '_' or '-'", errs.ErrValidation)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", errs.ErrAlreadyExists)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	u := &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CompanyName:  in.CompanyName,
		Phone:        in.Phone,
		Role:         model.RoleUser, // never taken from the request
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Login authenticates by email. Unknown email and wrong password produce the
// same error; the inactive check runs before the password comparison so a
// disabled account never learns whether its password was right.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	email = strings.ToLower(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, "", errs.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.Active {
		return nil, "", errs.ErrInactiveAccount
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, "", errs.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, "", err
	}
	u.LastLoginAt = &now

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Me returns a fresh account view.
func (s *AuthServiceImpl) Me(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdatePassword changes a password. Only the account owner may do it, and the
// current password is verified first.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, actorID, targetID uuid.UUID, current, next string) error {
	if actorID != targetID {
		return fmt.Errorf("%w: can only change your own password", errs.ErrForbidden)
	}
	if strings.TrimSpace(current) == "" {
		return fmt.Errorf("%w: current password is required", errs.ErrValidation)
	}
	if err := checkPasswordPolicy(next); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(u.PasswordHash, current) {
		return errs.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, u)
}

// checkPasswordPolicy enforces length and at least one non-alphanumeric character.
func checkPasswordPolicy(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", errs.ErrValidation)
	}
	hasSpecial := false
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			hasSpecial = true
		}
	}
	if !hasSpecial {
		return fmt.Errorf("%w: password must contain at least one special character", errs.ErrValidation)
	}
	return nil
}

// deriveUsername builds a handle from the email local part: lower-cased, with
// anything outside [a-z0-9_-] replaced by '_'.
func deriveUsername(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
