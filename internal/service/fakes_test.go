package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// fakeUsers is an in-memory UserRepository.
type fakeUsers struct {
	byID map[uuid.UUID]*model.User

	createErr   error
	createCalls int
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*model.User{}}
}

func (f *fakeUsers) add(u model.User) *model.User {
	cpy := u
	f.byID[u.ID] = &cpy
	return &cpy
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, fl repository.UserFilter) ([]model.User, int, error) {
	var out []model.User
	for _, u := range f.byID {
		if fl.Role != nil && u.Role != *fl.Role {
			continue
		}
		if fl.Active != nil && u.Active != *fl.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return errs.ErrNotFound
	}
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeCrops is an in-memory CropRepository.
type fakeCrops struct {
	byID map[uuid.UUID]*model.Crop
}

var _ repository.CropRepository = (*fakeCrops)(nil)

func newFakeCrops() *fakeCrops {
	return &fakeCrops{byID: map[uuid.UUID]*model.Crop{}}
}

func (f *fakeCrops) add(c model.Crop) *model.Crop {
	cpy := c
	f.byID[c.ID] = &cpy
	return &cpy
}

func (f *fakeCrops) Create(_ context.Context, c *model.Crop) error {
	cpy := *c
	f.byID[c.ID] = &cpy
	return nil
}

func (f *fakeCrops) GetByID(_ context.Context, id uuid.UUID) (*model.Crop, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *c
	return &cpy, nil
}

func (f *fakeCrops) List(_ context.Context, fl repository.CropFilter) ([]model.Crop, int, error) {
	var out []model.Crop
	for _, c := range f.byID {
		if fl.OwnerID != nil && c.OwnerID != *fl.OwnerID {
			continue
		}
		if fl.Status != nil && c.Status != *fl.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCrops) Update(_ context.Context, c *model.Crop) error {
	if _, ok := f.byID[c.ID]; !ok {
		return errs.ErrNotFound
	}
	cpy := *c
	f.byID[c.ID] = &cpy
	return nil
}

func (f *fakeCrops) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCrops) Stats(_ context.Context, ownerID *uuid.UUID) (repository.CropStats, error) {
	stats := repository.CropStats{ByStatus: []repository.CropStatusCount{}}
	byStatus := map[model.CropStatus]*repository.CropStatusCount{}
	for _, c := range f.byID {
		if ownerID != nil && c.OwnerID != *ownerID {
			continue
		}
		stats.Total++
		sc, ok := byStatus[c.Status]
		if !ok {
			sc = &repository.CropStatusCount{Status: c.Status}
			byStatus[c.Status] = sc
		}
		sc.Count++
		sc.TotalArea += c.Area
	}
	for _, sc := range byStatus {
		stats.ByStatus = append(stats.ByStatus, *sc)
	}
	return stats, nil
}

// fakeSensors is an in-memory SensorRepository.
type fakeSensors struct {
	byID map[uuid.UUID]*model.Sensor

	lastReadingCalls int
}

var _ repository.SensorRepository = (*fakeSensors)(nil)

func newFakeSensors() *fakeSensors {
	return &fakeSensors{byID: map[uuid.UUID]*model.Sensor{}}
}

func (f *fakeSensors) add(s model.Sensor) *model.Sensor {
	cpy := s
	f.byID[s.ID] = &cpy
	return &cpy
}

func (f *fakeSensors) Create(_ context.Context, s *model.Sensor) error {
	for _, existing := range f.byID {
		if existing.DeviceID == s.DeviceID {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *s
	f.byID[s.ID] = &cpy
	return nil
}

func (f *fakeSensors) GetByID(_ context.Context, id uuid.UUID) (*model.Sensor, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *s
	return &cpy, nil
}

func (f *fakeSensors) List(_ context.Context, fl repository.SensorFilter) ([]model.Sensor, int, error) {
	var out []model.Sensor
	for _, s := range f.byID {
		if fl.Status != nil && s.Status != *fl.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeSensors) Update(_ context.Context, s *model.Sensor) error {
	if _, ok := f.byID[s.ID]; !ok {
		return errs.ErrNotFound
	}
	cpy := *s
	f.byID[s.ID] = &cpy
	return nil
}

func (f *fakeSensors) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSensors) SetLastReading(_ context.Context, id uuid.UUID, values model.ReadingValues, at time.Time) error {
	f.lastReadingCalls++
	s, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	v := values
	s.LastReading = &v
	s.UpdatedAt = at
	return nil
}

// fakeReadings is an in-memory ReadingRepository.
type fakeReadings struct {
	bySensor map[uuid.UUID][]model.Reading
}

var _ repository.ReadingRepository = (*fakeReadings)(nil)

func newFakeReadings() *fakeReadings {
	return &fakeReadings{bySensor: map[uuid.UUID][]model.Reading{}}
}

func (f *fakeReadings) Create(_ context.Context, r *model.Reading) error {
	f.bySensor[r.SensorID] = append(f.bySensor[r.SensorID], *r)
	return nil
}

func (f *fakeReadings) ListBySensor(_ context.Context, sensorID uuid.UUID, _ repository.ReadingFilter) ([]model.Reading, int, error) {
	rs := f.bySensor[sensorID]
	return rs, len(rs), nil
}

func (f *fakeReadings) Averages(_ context.Context, sensorID uuid.UUID, since time.Time) (repository.ReadingAverages, error) {
	var a repository.ReadingAverages
	var tempSum float64
	var tempN int
	for _, r := range f.bySensor[sensorID] {
		if r.Timestamp.Before(since) {
			continue
		}
		a.Count++
		if r.Temperature != nil {
			tempSum += *r.Temperature
			tempN++
		}
	}
	if tempN > 0 {
		avg := tempSum / float64(tempN)
		a.Temperature = &avg
	}
	return a, nil
}

func (f *fakeReadings) DeleteBySensor(_ context.Context, sensorID uuid.UUID) error {
	delete(f.bySensor, sensorID)
	return nil
}

// fakeIssuer mints predictable tokens.
type fakeIssuer struct {
	issueCalls int
	err        error
}

func (f *fakeIssuer) Issue(userID uuid.UUID) (string, error) {
	f.issueCalls++
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID.String(), nil
}

// fakeHasher records call order so tests can assert the inactive check runs
// before any password comparison.
type fakeHasher struct {
	verifyCalls int
	verifyOK    bool
}

func (f *fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (f *fakeHasher) Verify(hash, password string) bool {
	f.verifyCalls++
	if f.verifyOK {
		return true
	}
	return hash == "hashed:"+password
}
