package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/model"
)

// SensorFilter narrows and pages sensor listings. Nil fields are not filtered on.
type SensorFilter struct {
	Status *model.SensorStatus
	Type   *model.SensorType
	CropID *uuid.UUID
	Page   int
	Limit  int
}

// ReadingFilter selects a time window of readings, newest first.
type ReadingFilter struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

// ReadingAverages holds per-parameter means over a window. Nil means no sample
// carried that parameter.
type ReadingAverages struct {
	Temperature  *float64 `json:"avgTemperature"`
	Humidity     *float64 `json:"avgHumidity"`
	SoilMoisture *float64 `json:"avgSoilMoisture"`
	Light        *float64 `json:"avgLight"`
	PH           *float64 `json:"avgPh"`
	Count        int      `json:"count"`
}

// SensorRepository provides CRUD access for sensors.
type SensorRepository interface {
	// Create inserts a new sensor. Returns errs.ErrAlreadyExists on a duplicate
	// device id.
	Create(ctx context.Context, s *model.Sensor) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sensor, error)
	// List returns a page of sensors plus the unpaged total.
	List(ctx context.Context, f SensorFilter) ([]model.Sensor, int, error)
	Update(ctx context.Context, s *model.Sensor) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetLastReading stores the most recent measurement snapshot on the sensor row.
	SetLastReading(ctx context.Context, id uuid.UUID, values model.ReadingValues, at time.Time) error
}

// ReadingRepository stores the immutable measurement history.
type ReadingRepository interface {
	Create(ctx context.Context, r *model.Reading) error
	// ListBySensor returns a page of readings plus the unpaged total.
	ListBySensor(ctx context.Context, sensorID uuid.UUID, f ReadingFilter) ([]model.Reading, int, error)
	// Averages computes per-parameter means for readings at or after since.
	Averages(ctx context.Context, sensorID uuid.UUID, since time.Time) (ReadingAverages, error)
	// DeleteBySensor removes a sensor's whole history (used when the sensor goes).
	DeleteBySensor(ctx context.Context, sensorID uuid.UUID) error
}
