package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
	"github.com/orusagri/agrimon/internal/service"
)

type cropRequest struct {
	Name                string                   `json:"name"`
	Type                string                   `json:"type"`
	Field               string                   `json:"field"`
	Area                float64                  `json:"area"`
	PlantingDate        time.Time                `json:"plantingDate"`
	ExpectedHarvestDate time.Time                `json:"expectedHarvestDate"`
	ActualHarvestDate   *time.Time               `json:"actualHarvestDate"`
	Status              *string                  `json:"status"`
	OptimalConditions   *model.OptimalConditions `json:"optimalConditions"`
	Notes               *string                  `json:"notes"`
}

func (r cropRequest) toInput() service.CropInput {
	return service.CropInput{
		Name:                r.Name,
		Type:                r.Type,
		Field:               r.Field,
		Area:                r.Area,
		PlantingDate:        r.PlantingDate,
		ExpectedHarvestDate: r.ExpectedHarvestDate,
		ActualHarvestDate:   r.ActualHarvestDate,
		Status:              r.Status,
		OptimalConditions:   r.OptimalConditions,
		Notes:               r.Notes,
	}
}

func (s *Server) handleListCrops(c *gin.Context) {
	f := repository.CropFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
	}
	if v := c.Query("status"); v != "" {
		status, err := model.ParseCropStatus(v)
		if err != nil {
			badRequest(c, "invalid status filter")
			return
		}
		f.Status = &status
	}
	if v := c.Query("type"); v != "" {
		cropType, err := model.ParseCropType(v)
		if err != nil {
			badRequest(c, "invalid type filter")
			return
		}
		f.Type = &cropType
	}

	crops, total, err := s.crops.List(c.Request.Context(), currentUser(c), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listResponse(c, crops, total, f.Page, f.Limit)
}

func (s *Server) handleCropStats(c *gin.Context) {
	stats, err := s.crops.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (s *Server) handleGetCrop(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	crop, err := s.crops.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": crop})
}

func (s *Server) handleCreateCrop(c *gin.Context) {
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	crop, err := s.crops.Create(c.Request.Context(), currentUser(c), req.toInput())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": crop})
}

func (s *Server) handleUpdateCrop(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	crop, err := s.crops.Update(c.Request.Context(), currentUser(c), id, req.toInput())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": crop})
}

func (s *Server) handleDeleteCrop(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.crops.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "crop deleted"})
}
