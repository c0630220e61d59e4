package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
)

// CropInput is the raw create/update payload for a crop.
type CropInput struct {
	Name                string
	Type                string
	Field               string
	Area                float64
	PlantingDate        time.Time
	ExpectedHarvestDate time.Time
	ActualHarvestDate   *time.Time
	Status              *string
	OptimalConditions   *model.OptimalConditions
	Notes               *string
}

// CropService manages crops with per-owner access: non-admins only see and
// touch their own.
type CropService interface {
	List(ctx context.Context, actor *model.User, f repository.CropFilter) ([]model.Crop, int, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Crop, error)
	Create(ctx context.Context, actor *model.User, in CropInput) (*model.Crop, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in CropInput) (*model.Crop, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
	Stats(ctx context.Context, actor *model.User) (repository.CropStats, error)
}

type CropServiceImpl struct {
	crops repository.CropRepository
	now   func() time.Time
}

// NewCropService constructs CropService.
func NewCropService(crops repository.CropRepository) *CropServiceImpl {
	return &CropServiceImpl{crops: crops, now: time.Now}
}

// List returns crops visible to the actor: everything for admins, own crops
// otherwise.
func (s *CropServiceImpl) List(ctx context.Context, actor *model.User, f repository.CropFilter) ([]model.Crop, int, error) {
	if actor.Role != model.RoleAdmin {
		f.OwnerID = &actor.ID
	}
	return s.crops.List(ctx, f)
}

// Get loads one crop, enforcing ownership for non-admins.
func (s *CropServiceImpl) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Crop, error) {
	c, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Create validates the payload and persists a crop owned by the actor.
// Viewer accounts cannot create.
func (s *CropServiceImpl) Create(ctx context.Context, actor *model.User, in CropInput) (*model.Crop, error) {
	if actor.Role == model.RoleViewer {
		return nil, fmt.Errorf("%w: viewers cannot create crops", errs.ErrForbidden)
	}
	if err := validateCropInput(in); err != nil {
		return nil, err
	}

	cropType, err := model.ParseCropType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	status := model.CropPlanted
	if in.Status != nil {
		if status, err = model.ParseCropStatus(*in.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	conditions := model.DefaultOptimalConditions()
	if in.OptimalConditions != nil {
		conditions = *in.OptimalConditions
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &model.Crop{
		ID:                  id,
		Name:                strings.TrimSpace(in.Name),
		Type:                cropType,
		Field:               strings.TrimSpace(in.Field),
		Area:                in.Area,
		PlantingDate:        in.PlantingDate,
		ExpectedHarvestDate: in.ExpectedHarvestDate,
		ActualHarvestDate:   in.ActualHarvestDate,
		Status:              status,
		OptimalConditions:   conditions,
		Notes:               in.Notes,
		OwnerID:             actor.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.crops.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies changes to an owned crop.
func (s *CropServiceImpl) Update(ctx context.Context, actor *model.User, id uuid.UUID, in CropInput) (*model.Crop, error) {
	if actor.Role == model.RoleViewer {
		return nil, fmt.Errorf("%w: viewers cannot update crops", errs.ErrForbidden)
	}
	c, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(actor, c); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.Type != "" {
		if c.Type, err = model.ParseCropType(in.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	if field := strings.TrimSpace(in.Field); field != "" {
		c.Field = field
	}
	if in.Area > 0 {
		c.Area = in.Area
	}
	if !in.PlantingDate.IsZero() {
		c.PlantingDate = in.PlantingDate
	}
	if !in.ExpectedHarvestDate.IsZero() {
		c.ExpectedHarvestDate = in.ExpectedHarvestDate
	}
	if in.ActualHarvestDate != nil {
		c.ActualHarvestDate = in.ActualHarvestDate
	}
	if in.Status != nil {
		if c.Status, err = model.ParseCropStatus(*in.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}
	if in.OptimalConditions != nil {
		c.OptimalConditions = *in.OptimalConditions
	}
	if in.Notes != nil {
		c.Notes = in.Notes
	}

	c.UpdatedAt = s.now().UTC()
	if err := s.crops.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes an owned crop.
func (s *CropServiceImpl) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if actor.Role == model.RoleViewer {
		return fmt.Errorf("%w: viewers cannot delete crops", errs.ErrForbidden)
	}
	c, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwner(actor, c); err != nil {
		return err
	}
	return s.crops.Delete(ctx, id)
}

// Stats aggregates crops: globally for admins, per-owner otherwise.
func (s *CropServiceImpl) Stats(ctx context.Context, actor *model.User) (repository.CropStats, error) {
	var owner *uuid.UUID
	if actor.Role != model.RoleAdmin {
		owner = &actor.ID
	}
	return s.crops.Stats(ctx, owner)
}

func (s *CropServiceImpl) checkOwner(actor *model.User, c *model.Crop) error {
	if actor.Role != model.RoleAdmin && c.OwnerID != actor.ID {
		return fmt.Errorf("%w: not the crop owner", errs.ErrForbidden)
	}
	return nil
}

func validateCropInput(in CropInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Field) == "" {
		return fmt.Errorf("%w: field is required", errs.ErrValidation)
	}
	if in.Area <= 0 {
		return fmt.Errorf("%w: area must be positive", errs.ErrValidation)
	}
	if in.PlantingDate.IsZero() {
		return fmt.Errorf("%w: plantingDate is required", errs.ErrValidation)
	}
	if in.ExpectedHarvestDate.IsZero() {
		return fmt.Errorf("%w: expectedHarvestDate is required", errs.ErrValidation)
	}
	return nil
}
