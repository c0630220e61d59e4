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

// SensorRepo implements SensorRepository using PostgreSQL.
type SensorRepo struct{ db *DB }

// NewSensorRepo constructs a sensor repository.
func NewSensorRepo(db *DB) *SensorRepo { return &SensorRepo{db: db} }

const sensorColumns = `id, device_id, name, type, field, crop_id, status, last_reading, reading_interval, installed_at, created_at, updated_at`

func scanSensor(row pgx.Row) (*model.Sensor, error) {
	var s model.Sensor
	err := row.Scan(&s.ID, &s.DeviceID, &s.Name, &s.Type, &s.Field, &s.CropID, &s.Status,
		&s.LastReading, &s.ReadingInterval, &s.InstalledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new sensor row.
func (r *SensorRepo) Create(ctx context.Context, s *model.Sensor) error {
	const q = `
INSERT INTO sensors (id, device_id, name, type, field, crop_id, status, last_reading, reading_interval, installed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.DeviceID, s.Name, s.Type, s.Field, s.CropID,
		s.Status, s.LastReading, s.ReadingInterval, s.InstalledAt, s.CreatedAt, s.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a sensor by ID.
func (r *SensorRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Sensor, error) {
	q := `SELECT ` + sensorColumns + ` FROM sensors WHERE id=$1`
	return scanSensor(r.db.Pool.QueryRow(ctx, q, id))
}

// List selects a page of sensors plus the unpaged total.
func (r *SensorRepo) List(ctx context.Context, f repository.SensorFilter) ([]model.Sensor, int, error) {
	where, args := "", []any{}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.Type != nil {
		args = append(args, *f.Type)
		where += fmt.Sprintf(" AND type=$%d", len(args))
	}
	if f.CropID != nil {
		args = append(args, *f.CropID)
		where += fmt.Sprintf(" AND crop_id=$%d", len(args))
	}

	var total int
	countQ := `SELECT count(*) FROM sensors WHERE true` + where
	if err := r.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageLimit(f.Limit), pageOffset(f.Page, f.Limit))
	q := fmt.Sprintf(`SELECT `+sensorColumns+` FROM sensors WHERE true%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// Update persists every mutable column.
func (r *SensorRepo) Update(ctx context.Context, s *model.Sensor) error {
	const q = `
UPDATE sensors
SET device_id=$2, name=$3, type=$4, field=$5, crop_id=$6, status=$7,
    reading_interval=$8, updated_at=$9
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, s.ID, s.DeviceID, s.Name, s.Type, s.Field, s.CropID,
		s.Status, s.ReadingInterval, s.UpdatedAt)
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

// Delete removes a sensor row. Readings are removed separately first.
func (r *SensorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM sensors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetLastReading stores the latest measurement snapshot on the sensor row.
func (r *SensorRepo) SetLastReading(ctx context.Context, id uuid.UUID, values model.ReadingValues, at time.Time) error {
	const q = `UPDATE sensors SET last_reading=$2, updated_at=$3 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, values, at)
	return err
}
