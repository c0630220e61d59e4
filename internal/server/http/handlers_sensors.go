package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
	"github.com/orusagri/agrimon/internal/service"
)

type sensorRequest struct {
	DeviceID        string  `json:"deviceId"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Field           *string `json:"field"`
	CropID          *string `json:"cropId"`
	Status          *string `json:"status"`
	ReadingInterval *int    `json:"readingInterval"`
}

// ingestRequest uses the device wire names (snake case, as the firmware sends).
type ingestRequest struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	SoilMoisture *float64 `json:"soil_moisture"`
	Light        *float64 `json:"light"`
	PH           *float64 `json:"ph"`
}

func (s *Server) handleIngest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	reading, err := s.sensors.Ingest(c.Request.Context(), id, model.ReadingValues{
		Temperature:  req.Temperature,
		Humidity:     req.Humidity,
		SoilMoisture: req.SoilMoisture,
		Light:        req.Light,
		PH:           req.PH,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": reading})
}

func (s *Server) handleListSensors(c *gin.Context) {
	f := repository.SensorFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
	}
	if v := c.Query("status"); v != "" {
		status, err := model.ParseSensorStatus(v)
		if err != nil {
			badRequest(c, "invalid status filter")
			return
		}
		f.Status = &status
	}
	if v := c.Query("type"); v != "" {
		sensorType, err := model.ParseSensorType(v)
		if err != nil {
			badRequest(c, "invalid type filter")
			return
		}
		f.Type = &sensorType
	}
	if v := c.Query("crop"); v != "" {
		cropID, err := uuid.FromString(v)
		if err != nil {
			badRequest(c, "invalid crop filter")
			return
		}
		f.CropID = &cropID
	}

	sensors, total, err := s.sensors.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listResponse(c, sensors, total, f.Page, f.Limit)
}

func (s *Server) handleGetSensor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sensor, err := s.sensors.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sensor})
}

func (s *Server) handleCreateSensor(c *gin.Context) {
	var req sensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, ok := s.sensorInput(c, req)
	if !ok {
		return
	}
	sensor, err := s.sensors.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": sensor})
}

func (s *Server) handleUpdateSensor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, ok := s.sensorInput(c, req)
	if !ok {
		return
	}
	sensor, err := s.sensors.Update(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sensor})
}

func (s *Server) handleDeleteSensor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.sensors.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "sensor and readings deleted"})
}

func (s *Server) handleListReadings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f := repository.ReadingFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 50),
	}
	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid startDate")
			return
		}
		f.From = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid endDate")
			return
		}
		f.To = &t
	}

	readings, total, err := s.sensors.Readings(c.Request.Context(), id, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listResponse(c, readings, total, f.Page, f.Limit)
}

func (s *Server) handleReadingAverages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	hours := queryInt(c, "hours", 24)
	avg, err := s.sensors.Averages(c.Request.Context(), id, time.Duration(hours)*time.Hour)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": avg})
}

// sensorInput converts the wire request, validating the crop id format.
func (s *Server) sensorInput(c *gin.Context, req sensorRequest) (service.SensorInput, bool) {
	in := service.SensorInput{
		DeviceID:        req.DeviceID,
		Name:            req.Name,
		Type:            req.Type,
		Field:           req.Field,
		Status:          req.Status,
		ReadingInterval: req.ReadingInterval,
	}
	if req.CropID != nil && *req.CropID != "" {
		cropID, err := uuid.FromString(*req.CropID)
		if err != nil {
			badRequest(c, "invalid cropId")
			return service.SensorInput{}, false
		}
		in.CropID = &cropID
	}
	return in, true
}
