package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// ReadingRepo implements ReadingRepository using PostgreSQL. Rows are written
// once at ingestion and never updated; alerts are stored alongside as JSONB.
type ReadingRepo struct{ db *DB }

// NewReadingRepo constructs a reading repository.
func NewReadingRepo(db *DB) *ReadingRepo { return &ReadingRepo{db: db} }

const readingColumns = `id, sensor_id, temperature, humidity, soil_moisture, light, ph, timestamp, alerts, created_at`

// Create inserts a reading row.
func (r *ReadingRepo) Create(ctx context.Context, rd *model.Reading) error {
	const q = `
INSERT INTO sensor_readings (id, sensor_id, temperature, humidity, soil_moisture, light, ph, timestamp, alerts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Pool.Exec(ctx, q, rd.ID, rd.SensorID, rd.Temperature, rd.Humidity,
		rd.SoilMoisture, rd.Light, rd.PH, rd.Timestamp, rd.Alerts, rd.CreatedAt)
	return err
}

// ListBySensor selects a page of readings for one sensor, newest first.
func (r *ReadingRepo) ListBySensor(ctx context.Context, sensorID uuid.UUID, f repository.ReadingFilter) ([]model.Reading, int, error) {
	where, args := "", []any{sensorID}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}

	var total int
	countQ := `SELECT count(*) FROM sensor_readings WHERE sensor_id=$1` + where
	if err := r.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageLimit(f.Limit), pageOffset(f.Page, f.Limit))
	q := fmt.Sprintf(`SELECT `+readingColumns+` FROM sensor_readings WHERE sensor_id=$1%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		var rd model.Reading
		err := rows.Scan(&rd.ID, &rd.SensorID, &rd.Temperature, &rd.Humidity, &rd.SoilMoisture,
			&rd.Light, &rd.PH, &rd.Timestamp, &rd.Alerts, &rd.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rd)
	}
	return out, total, rows.Err()
}

// Averages computes per-parameter means for readings at or after since.
func (r *ReadingRepo) Averages(ctx context.Context, sensorID uuid.UUID, since time.Time) (repository.ReadingAverages, error) {
	const q = `
SELECT avg(temperature), avg(humidity), avg(soil_moisture), avg(light), avg(ph), count(id)
FROM sensor_readings
WHERE sensor_id=$1 AND timestamp >= $2`
	var a repository.ReadingAverages
	err := r.db.Pool.QueryRow(ctx, q, sensorID, since).
		Scan(&a.Temperature, &a.Humidity, &a.SoilMoisture, &a.Light, &a.PH, &a.Count)
	return a, err
}

// DeleteBySensor removes a sensor's whole reading history.
func (r *ReadingRepo) DeleteBySensor(ctx context.Context, sensorID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM sensor_readings WHERE sensor_id=$1`, sensorID)
	return err
}
