package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
	"github.com/orusagri/agrimon/internal/service"
	"github.com/orusagri/agrimon/internal/token"
)

// fakeAccounts backs the authentication middleware's account lookup.
type fakeAccounts struct {
	byID map[uuid.UUID]*model.User
}

var _ repository.UserRepository = (*fakeAccounts)(nil)

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[uuid.UUID]*model.User{}}
}

func (f *fakeAccounts) add(u model.User) *model.User {
	cpy := u
	f.byID[u.ID] = &cpy
	return &cpy
}

func (f *fakeAccounts) Create(_ context.Context, u *model.User) error {
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAccounts) List(context.Context, repository.UserFilter) ([]model.User, int, error) {
	return nil, 0, nil
}

func (f *fakeAccounts) Update(_ context.Context, u *model.User) error {
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeAccounts) TouchLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }

func (f *fakeAccounts) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

// fakeAuth implements service.AuthService with canned results.
type fakeAuth struct {
	registerUser *model.User
	registerErr  error
	loginUser    *model.User
	loginErr     error
	accounts     *fakeAccounts
}

var _ service.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(_ context.Context, in service.RegisterInput) (*model.User, string, error) {
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	return f.registerUser, "tok-register", nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*model.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	return f.loginUser, "tok-login", nil
}

func (f *fakeAuth) Me(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.accounts.GetByID(ctx, id)
}

func (f *fakeAuth) UpdatePassword(context.Context, uuid.UUID, uuid.UUID, string, string) error {
	return nil
}

// fakeUserSvc implements service.UserService with canned results.
type fakeUserSvc struct {
	accounts *fakeAccounts
}

var _ service.UserService = (*fakeUserSvc)(nil)

func (f *fakeUserSvc) List(_ context.Context, actor *model.User, _ repository.UserFilter) ([]model.User, int, error) {
	var out []model.User
	for _, u := range f.accounts.byID {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserSvc) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.accounts.GetByID(ctx, id)
}

func (f *fakeUserSvc) Update(ctx context.Context, _ *model.User, id uuid.UUID, _ service.UserUpdateInput) (*model.User, error) {
	return f.accounts.GetByID(ctx, id)
}

func (f *fakeUserSvc) Delete(ctx context.Context, _ *model.User, id uuid.UUID) error {
	return f.accounts.Delete(ctx, id)
}

// fakeCropSvc implements service.CropService with canned results.
type fakeCropSvc struct {
	crop *model.Crop
	err  error
}

var _ service.CropService = (*fakeCropSvc)(nil)

func (f *fakeCropSvc) List(context.Context, *model.User, repository.CropFilter) ([]model.Crop, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	if f.crop == nil {
		return nil, 0, nil
	}
	return []model.Crop{*f.crop}, 1, nil
}

func (f *fakeCropSvc) Get(context.Context, *model.User, uuid.UUID) (*model.Crop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.crop, nil
}

func (f *fakeCropSvc) Create(context.Context, *model.User, service.CropInput) (*model.Crop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.crop, nil
}

func (f *fakeCropSvc) Update(context.Context, *model.User, uuid.UUID, service.CropInput) (*model.Crop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.crop, nil
}

func (f *fakeCropSvc) Delete(context.Context, *model.User, uuid.UUID) error { return f.err }

func (f *fakeCropSvc) Stats(context.Context, *model.User) (repository.CropStats, error) {
	return repository.CropStats{}, f.err
}

// fakeSensorSvc implements service.SensorService with canned results.
type fakeSensorSvc struct {
	sensor  *model.Sensor
	reading *model.Reading

	ingestErr error
	ingestGot *model.ReadingValues
}

var _ service.SensorService = (*fakeSensorSvc)(nil)

func (f *fakeSensorSvc) List(context.Context, repository.SensorFilter) ([]model.Sensor, int, error) {
	if f.sensor == nil {
		return nil, 0, nil
	}
	return []model.Sensor{*f.sensor}, 1, nil
}

func (f *fakeSensorSvc) Get(context.Context, uuid.UUID) (*model.Sensor, error) {
	if f.sensor == nil {
		return nil, errs.ErrNotFound
	}
	return f.sensor, nil
}

func (f *fakeSensorSvc) Create(context.Context, service.SensorInput) (*model.Sensor, error) {
	return f.sensor, nil
}

func (f *fakeSensorSvc) Update(context.Context, uuid.UUID, service.SensorInput) (*model.Sensor, error) {
	return f.sensor, nil
}

func (f *fakeSensorSvc) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeSensorSvc) Ingest(_ context.Context, _ uuid.UUID, values model.ReadingValues) (*model.Reading, error) {
	f.ingestGot = &values
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.reading, nil
}

func (f *fakeSensorSvc) Readings(context.Context, uuid.UUID, repository.ReadingFilter) ([]model.Reading, int, error) {
	return nil, 0, nil
}

func (f *fakeSensorSvc) Averages(context.Context, uuid.UUID, time.Duration) (repository.ReadingAverages, error) {
	return repository.ReadingAverages{}, nil
}

type testEnv struct {
	router   *gin.Engine
	accounts *fakeAccounts
	issuer   *token.Issuer
	auth     *fakeAuth
	crops    *fakeCropSvc
	sensors  *fakeSensorSvc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := newFakeAccounts()
	issuer, err := token.NewIssuer([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	auth := &fakeAuth{accounts: accounts}
	crops := &fakeCropSvc{}
	sensors := &fakeSensorSvc{}

	srv := New(Options{
		Log:        zap.NewNop(),
		Auth:       auth,
		Users:      &fakeUserSvc{accounts: accounts},
		Crops:      crops,
		Sensors:    sensors,
		Verifier:   issuer,
		Accounts:   accounts,
		CORSOrigin: "http://localhost:3000",
	})
	return &testEnv{
		router:   srv.Router(),
		accounts: accounts,
		issuer:   issuer,
		auth:     auth,
		crops:    crops,
		sensors:  sensors,
	}
}

// seedAccount registers an active account and returns it with a valid token.
func (e *testEnv) seedAccount(t *testing.T, role model.Role) (*model.User, string) {
	t.Helper()
	u := e.accounts.add(model.User{
		ID:     uuid.Must(uuid.NewV4()),
		Email:  string(role) + "@farm.example",
		Role:   role,
		Active: true,
	})
	tok, err := e.issuer.Issue(u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return u, tok
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
