package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/alerts"
	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// SensorInput is the raw create/update payload for a sensor.
type SensorInput struct {
	DeviceID        string
	Name            string
	Type            string
	Field           *string
	CropID          *uuid.UUID
	Status          *string
	ReadingInterval *int
}

// SensorService manages devices and their measurement stream.
type SensorService interface {
	List(ctx context.Context, f repository.SensorFilter) ([]model.Sensor, int, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Sensor, error)
	Create(ctx context.Context, in SensorInput) (*model.Sensor, error)
	Update(ctx context.Context, id uuid.UUID, in SensorInput) (*model.Sensor, error)
	// Delete removes the sensor along with its reading history.
	Delete(ctx context.Context, id uuid.UUID) error

	// Ingest stores one measurement from a device, computing alerts against the
	// attached crop's optimal conditions exactly once. The write is rejected
	// when the sensor is unknown or not active.
	Ingest(ctx context.Context, sensorID uuid.UUID, values model.ReadingValues) (*model.Reading, error)
	// Readings returns a page of a sensor's history, newest first.
	Readings(ctx context.Context, sensorID uuid.UUID, f repository.ReadingFilter) ([]model.Reading, int, error)
	// Averages computes per-parameter means over the trailing window.
	Averages(ctx context.Context, sensorID uuid.UUID, window time.Duration) (repository.ReadingAverages, error)
}

type SensorServiceImpl struct {
	sensors  repository.SensorRepository
	readings repository.ReadingRepository
	crops    repository.CropRepository
	now      func() time.Time
}

// NewSensorService constructs SensorService.
func NewSensorService(sensors repository.SensorRepository, readings repository.ReadingRepository, crops repository.CropRepository) *SensorServiceImpl {
	return &SensorServiceImpl{sensors: sensors, readings: readings, crops: crops, now: time.Now}
}

// List returns a page of sensors.
func (s *SensorServiceImpl) List(ctx context.Context, f repository.SensorFilter) ([]model.Sensor, int, error) {
	return s.sensors.List(ctx, f)
}

// Get loads one sensor.
func (s *SensorServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Sensor, error) {
	return s.sensors.GetByID(ctx, id)
}

// Create validates and registers a device. The referenced crop must exist.
func (s *SensorServiceImpl) Create(ctx context.Context, in SensorInput) (*model.Sensor, error) {
	if strings.TrimSpace(in.DeviceID) == "" {
		return nil, fmt.Errorf("%w: deviceId is required", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	sensorType := model.SensorMulti
	if in.Type != "" {
		var err error
		if sensorType, err = model.ParseSensorType(in.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	status := model.SensorActive
	if in.Status != nil {
		var err error
		if status, err = model.ParseSensorStatus(*in.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	if in.CropID != nil {
		if _, err := s.crops.GetByID(ctx, *in.CropID); err != nil {
			return nil, fmt.Errorf("crop %s: %w", in.CropID, err)
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	interval := 300
	if in.ReadingInterval != nil && *in.ReadingInterval > 0 {
		interval = *in.ReadingInterval
	}
	now := s.now().UTC()
	sensor := &model.Sensor{
		ID:              id,
		DeviceID:        strings.TrimSpace(in.DeviceID),
		Name:            strings.TrimSpace(in.Name),
		Type:            sensorType,
		Field:           in.Field,
		CropID:          in.CropID,
		Status:          status,
		ReadingInterval: interval,
		InstalledAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sensors.Create(ctx, sensor); err != nil {
		return nil, err
	}
	return sensor, nil
}

// Update applies changes to a sensor.
func (s *SensorServiceImpl) Update(ctx context.Context, id uuid.UUID, in SensorInput) (*model.Sensor, error) {
	sensor, err := s.sensors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if deviceID := strings.TrimSpace(in.DeviceID); deviceID != "" {
		sensor.DeviceID = deviceID
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		sensor.Name = name
	}
	if in.Type != "" {
		if sensor.Type, err = model.ParseSensorType(in.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	if in.Field != nil {
		sensor.Field = in.Field
	}
	if in.CropID != nil {
		if _, err := s.crops.GetByID(ctx, *in.CropID); err != nil {
			return nil, fmt.Errorf("crop %s: %w", in.CropID, err)
		}
		sensor.CropID = in.CropID
	}
	if in.Status != nil {
		if sensor.Status, err = model.ParseSensorStatus(*in.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	if in.ReadingInterval != nil && *in.ReadingInterval > 0 {
		sensor.ReadingInterval = *in.ReadingInterval
	}

	sensor.UpdatedAt = s.now().UTC()
	if err := s.sensors.Update(ctx, sensor); err != nil {
		return nil, err
	}
	return sensor, nil
}

// Delete removes a sensor and its whole reading history.
func (s *SensorServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.sensors.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.readings.DeleteBySensor(ctx, id); err != nil {
		return err
	}
	return s.sensors.Delete(ctx, id)
}

// Ingest stores one measurement. Alerts are attached here, once, and the
// stored reading is immutable afterwards.
func (s *SensorServiceImpl) Ingest(ctx context.Context, sensorID uuid.UUID, values model.ReadingValues) (*model.Reading, error) {
	sensor, err := s.sensors.GetByID(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if sensor.Status != model.SensorActive {
		return nil, fmt.Errorf("%w: sensor is not active", errs.ErrValidation)
	}
	if err := validateReadingValues(values); err != nil {
		return nil, err
	}

	var computed []model.Alert
	if sensor.CropID != nil {
		crop, err := s.crops.GetByID(ctx, *sensor.CropID)
		if err == nil {
			computed = alerts.Evaluate(values, crop.OptimalConditions)
		} else if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		// a dangling crop reference just means no alerts
	}
	if computed == nil {
		computed = []model.Alert{}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	reading := &model.Reading{
		ID:            id,
		SensorID:      sensor.ID,
		ReadingValues: values,
		Timestamp:     now,
		Alerts:        computed,
		CreatedAt:     now,
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, err
	}
	if err := s.sensors.SetLastReading(ctx, sensor.ID, values, now); err != nil {
		return nil, err
	}
	return reading, nil
}

// Readings returns a page of a sensor's history.
func (s *SensorServiceImpl) Readings(ctx context.Context, sensorID uuid.UUID, f repository.ReadingFilter) ([]model.Reading, int, error) {
	if _, err := s.sensors.GetByID(ctx, sensorID); err != nil {
		return nil, 0, err
	}
	return s.readings.ListBySensor(ctx, sensorID, f)
}

// Averages computes means over the trailing window (default 24h).
func (s *SensorServiceImpl) Averages(ctx context.Context, sensorID uuid.UUID, window time.Duration) (repository.ReadingAverages, error) {
	if _, err := s.sensors.GetByID(ctx, sensorID); err != nil {
		return repository.ReadingAverages{}, err
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.readings.Averages(ctx, sensorID, s.now().UTC().Add(-window))
}

// validateReadingValues applies the physical bounds every measurement must
// satisfy regardless of crop configuration.
func validateReadingValues(v model.ReadingValues) error {
	check := func(name string, val *float64, min, max float64) error {
		if val != nil && (*val < min || *val > max) {
			return fmt.Errorf("%w: %s out of range", errs.ErrValidation, name)
		}
		return nil
	}
	if err := check("temperature", v.Temperature, -50, 100); err != nil {
		return err
	}
	if err := check("humidity", v.Humidity, 0, 100); err != nil {
		return err
	}
	if err := check("soil_moisture", v.SoilMoisture, 0, 100); err != nil {
		return err
	}
	if v.Light != nil && *v.Light < 0 {
		return fmt.Errorf("%w: light must be non-negative", errs.ErrValidation)
	}
	return check("ph", v.PH, 0, 14)
}
