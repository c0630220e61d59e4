package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:    "alice_farm",
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       "alice@farm.example",
		Password:    "s3cret!pass",
		CompanyName: "Smith Farms",
	}
}

func newAuthForTest(users *fakeUsers) (*AuthServiceImpl, *fakeIssuer, *fakeHasher) {
	issuer := &fakeIssuer{}
	hasher := &fakeHasher{}
	s := NewAuthService(users, issuer)
	s.hasher = hasher
	return s, issuer, hasher
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s, _, _ := newAuthForTest(users)

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing firstName", func(in *RegisterInput) { in.FirstName = "" }},
		{"missing lastName", func(in *RegisterInput) { in.LastName = " " }},
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"missing password", func(in *RegisterInput) { in.Password = "" }},
		{"missing companyName", func(in *RegisterInput) { in.CompanyName = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"email with spaces", func(in *RegisterInput) { in.Email = "a b@farm.example" }},
		{"short password", func(in *RegisterInput) { in.Password = "ab!" }},
		{"password without special char", func(in *RegisterInput) { in.Password = "abcdefgh1" }},
		{"username too short", func(in *RegisterInput) { in.Username = "ab" }},
		{"username bad chars", func(in *RegisterInput) { in.Username = "has space" }},
	}
	for _, tc := range cases {
		in := validRegisterInput()
		tc.mutate(&in)
		if _, _, err := s.Register(context.Background(), in); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}
	if users.createCalls != 0 {
		t.Fatalf("no account may be created on validation failure, got %d creates", users.createCalls)
	}
}

func TestAuth_Register_Success(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s, issuer, _ := newAuthForTest(users)

	u, tok, err := s.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatalf("empty user id")
	}
	if u.Email != "alice@farm.example" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if !strings.HasPrefix(u.PasswordHash, "hashed:") {
		t.Fatalf("password not hashed through the hasher: %q", u.PasswordHash)
	}
	if !u.Active {
		t.Fatalf("new account must be active")
	}
	if tok != "token-"+u.ID.String() {
		t.Fatalf("unexpected token %q", tok)
	}
	if issuer.issueCalls != 1 {
		t.Fatalf("want one token issued, got %d", issuer.issueCalls)
	}

	stored, err := users.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if stored.PasswordHash != u.PasswordHash {
		t.Fatalf("stored hash differs")
	}
}

func TestAuth_Register_RoleAlwaysDefault(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s, _, _ := newAuthForTest(users)

	u, _, err := s.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != model.RoleUser {
		t.Fatalf("new accounts must get the default role, got %q", u.Role)
	}
}

func TestAuth_Register_UsernameDerivedFromEmail(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s, _, _ := newAuthForTest(users)

	in := validRegisterInput()
	in.Username = ""
	in.Email = "John.Doe+farm@Example.com"
	u, _, err := s.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "john_doe_farm" {
		t.Fatalf("derived username = %q", u.Username)
	}
	if u.Email != "john.doe+farm@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	users.add(model.User{
		ID:     uuid.Must(uuid.NewV4()),
		Email:  "alice@farm.example",
		Active: true,
	})
	s, _, _ := newAuthForTest(users)

	if _, _, err := s.Register(context.Background(), validRegisterInput()); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
	if users.createCalls != 0 {
		t.Fatalf("duplicate email must not reach the repository, got %d creates", users.createCalls)
	}
}

func TestAuth_Register_RepoErrorPropagates(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	users.createErr = errors.New("boom")
	s, _, _ := newAuthForTest(users)

	if _, _, err := s.Register(context.Background(), validRegisterInput()); err == nil || errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want propagated repo error, got %v", err)
	}
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "alice@farm.example",
		PasswordHash: "hashed:s3cret!pass",
		Active:       true,
	})
	s, issuer, _ := newAuthForTest(users)

	if _, _, err := s.Login(context.Background(), "", "x"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on blank email, got %v", err)
	}
	if _, _, err := s.Login(context.Background(), "nobody@farm.example", "x"); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on unknown email, got %v", err)
	}
	if _, _, err := s.Login(context.Background(), "alice@farm.example", "wrong-pass"); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on wrong password, got %v", err)
	}

	got, tok, err := s.Login(context.Background(), "ALICE@farm.example", "s3cret!pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong account returned")
	}
	if tok == "" || issuer.issueCalls != 1 {
		t.Fatalf("token not issued")
	}
	if got.LastLoginAt == nil {
		t.Fatalf("last login not recorded")
	}
	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.LastLoginAt == nil {
		t.Fatalf("last login not persisted")
	}
}

func TestAuth_Login_InactiveBeforePasswordCheck(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	users.add(model.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "off@farm.example",
		PasswordHash: "hashed:s3cret!pass",
		Active:       false,
	})
	s, issuer, hasher := newAuthForTest(users)

	_, _, err := s.Login(context.Background(), "off@farm.example", "s3cret!pass")
	if !errors.Is(err, errs.ErrInactiveAccount) {
		t.Fatalf("want ErrInactiveAccount, got %v", err)
	}
	if hasher.verifyCalls != 0 {
		t.Fatalf("password must not be compared for an inactive account")
	}
	if issuer.issueCalls != 0 {
		t.Fatalf("no token may be issued for an inactive account")
	}
}

func TestAuth_UpdatePassword(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "alice@farm.example",
		PasswordHash: "hashed:old-pass!",
		Active:       true,
	})
	other := uuid.Must(uuid.NewV4())
	s, _, _ := newAuthForTest(users)

	if err := s.UpdatePassword(context.Background(), other, u.ID, "old-pass!", "new-pass!9"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden for another account, got %v", err)
	}
	if err := s.UpdatePassword(context.Background(), u.ID, u.ID, "wrong", "new-pass!9"); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on wrong current, got %v", err)
	}
	if err := s.UpdatePassword(context.Background(), u.ID, u.ID, "old-pass!", "weak"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on weak new password, got %v", err)
	}

	if err := s.UpdatePassword(context.Background(), u.ID, u.ID, "old-pass!", "new-pass!9"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.PasswordHash != "hashed:new-pass!9" {
		t.Fatalf("new password not stored, hash = %q", stored.PasswordHash)
	}
}

func TestAuth_TimeStampsUseInjectedClock(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s, _, _ := newAuthForTest(users)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	u, _, err := s.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !u.CreatedAt.Equal(fixed) || !u.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps = %v / %v, want %v", u.CreatedAt, u.UpdatedAt, fixed)
	}
}
