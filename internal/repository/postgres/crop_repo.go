package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// CropRepo implements CropRepository using PostgreSQL. Optimal conditions live
// in a JSONB column and round-trip through pgx's JSON codec.
type CropRepo struct{ db *DB }

// NewCropRepo constructs a crop repository.
func NewCropRepo(db *DB) *CropRepo { return &CropRepo{db: db} }

const cropColumns = `id, name, type, field, area, planting_date, expected_harvest_date, actual_harvest_date, status, optimal_conditions, notes, owner_id, created_at, updated_at`

func scanCrop(row pgx.Row) (*model.Crop, error) {
	var c model.Crop
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Field, &c.Area, &c.PlantingDate,
		&c.ExpectedHarvestDate, &c.ActualHarvestDate, &c.Status, &c.OptimalConditions,
		&c.Notes, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new crop row.
func (r *CropRepo) Create(ctx context.Context, c *model.Crop) error {
	const q = `
INSERT INTO crops (id, name, type, field, area, planting_date, expected_harvest_date, actual_harvest_date, status, optimal_conditions, notes, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.Name, c.Type, c.Field, c.Area, c.PlantingDate,
		c.ExpectedHarvestDate, c.ActualHarvestDate, c.Status, c.OptimalConditions, c.Notes,
		c.OwnerID, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetByID selects a crop by ID.
func (r *CropRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Crop, error) {
	q := `SELECT ` + cropColumns + ` FROM crops WHERE id=$1`
	return scanCrop(r.db.Pool.QueryRow(ctx, q, id))
}

// List selects a page of crops plus the unpaged total.
func (r *CropRepo) List(ctx context.Context, f repository.CropFilter) ([]model.Crop, int, error) {
	where, args := "", []any{}
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		where += fmt.Sprintf(" AND owner_id=$%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.Type != nil {
		args = append(args, *f.Type)
		where += fmt.Sprintf(" AND type=$%d", len(args))
	}

	var total int
	countQ := `SELECT count(*) FROM crops WHERE true` + where
	if err := r.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageLimit(f.Limit), pageOffset(f.Page, f.Limit))
	q := fmt.Sprintf(`SELECT `+cropColumns+` FROM crops WHERE true%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Update persists every mutable column.
func (r *CropRepo) Update(ctx context.Context, c *model.Crop) error {
	const q = `
UPDATE crops
SET name=$2, type=$3, field=$4, area=$5, planting_date=$6, expected_harvest_date=$7,
    actual_harvest_date=$8, status=$9, optimal_conditions=$10, notes=$11, updated_at=$12
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.Name, c.Type, c.Field, c.Area, c.PlantingDate,
		c.ExpectedHarvestDate, c.ActualHarvestDate, c.Status, c.OptimalConditions, c.Notes, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a crop row.
func (r *CropRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM crops WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Stats aggregates crop counts and total area grouped by status.
func (r *CropRepo) Stats(ctx context.Context, ownerID *uuid.UUID) (repository.CropStats, error) {
	where, args := "", []any{}
	if ownerID != nil {
		args = append(args, *ownerID)
		where = " AND owner_id=$1"
	}
	q := `SELECT status, count(*), coalesce(sum(area), 0) FROM crops WHERE true` + where + ` GROUP BY status ORDER BY status`
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return repository.CropStats{}, err
	}
	defer rows.Close()

	stats := repository.CropStats{ByStatus: []repository.CropStatusCount{}}
	for rows.Next() {
		var sc repository.CropStatusCount
		if err := rows.Scan(&sc.Status, &sc.Count, &sc.TotalArea); err != nil {
			return repository.CropStats{}, err
		}
		stats.ByStatus = append(stats.ByStatus, sc)
		stats.Total += sc.Count
	}
	return stats, rows.Err()
}
