package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/model"
)

// CropFilter narrows and pages crop listings. Nil fields are not filtered on.
type CropFilter struct {
	OwnerID *uuid.UUID
	Status  *model.CropStatus
	Type    *model.CropType
	Page    int
	Limit   int
}

// CropStatusCount is one per-status aggregation row.
type CropStatusCount struct {
	Status    model.CropStatus `json:"status"`
	Count     int              `json:"count"`
	TotalArea float64          `json:"totalArea"`
}

// CropStats summarizes crops, optionally restricted to one owner.
type CropStats struct {
	Total    int               `json:"total"`
	ByStatus []CropStatusCount `json:"byStatus"`
}

// CropRepository provides CRUD access for crops.
type CropRepository interface {
	Create(ctx context.Context, c *model.Crop) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Crop, error)
	// List returns a page of crops plus the unpaged total.
	List(ctx context.Context, f CropFilter) ([]model.Crop, int, error)
	Update(ctx context.Context, c *model.Crop) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Stats aggregates counts and area by status; ownerID nil means all owners.
	Stats(ctx context.Context, ownerID *uuid.UUID) (CropStats, error)
}
