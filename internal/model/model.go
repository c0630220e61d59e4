// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is the closed set of account roles used for authorization decisions.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// In reports whether the role is a member of the given set.
func (r Role) In(roles ...Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

// User represents an account. The password hash never leaves the server.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"` // unique
	Email        string     `json:"email"`    // unique, stored lower-case
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CompanyName  string     `json:"companyName"`
	Phone        *string    `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Active       bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CropType categorizes a crop.
type CropType string

const (
	CropCereal    CropType = "cereal"
	CropLegume    CropType = "legume"
	CropVegetable CropType = "vegetable"
	CropFruit     CropType = "fruit"
	CropOther     CropType = "other"
)

// ParseCropType validates a raw crop type string.
func ParseCropType(s string) (CropType, error) {
	switch CropType(s) {
	case CropCereal, CropLegume, CropVegetable, CropFruit, CropOther:
		return CropType(s), nil
	}
	return "", fmt.Errorf("unknown crop type %q", s)
}

// CropStatus tracks a crop through its lifecycle.
type CropStatus string

const (
	CropPlanted   CropStatus = "planted"
	CropGrowing   CropStatus = "growing"
	CropReady     CropStatus = "ready"
	CropHarvested CropStatus = "harvested"
	CropFailed    CropStatus = "failed"
)

// ParseCropStatus validates a raw crop status string.
func ParseCropStatus(s string) (CropStatus, error) {
	switch CropStatus(s) {
	case CropPlanted, CropGrowing, CropReady, CropHarvested, CropFailed:
		return CropStatus(s), nil
	}
	return "", fmt.Errorf("unknown crop status %q", s)
}

// Band is an inclusive [Min, Max] range a measurement should stay within.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// OptimalConditions holds the per-crop acceptable bands, keyed by parameter.
// A nil band means the parameter is not monitored for this crop.
type OptimalConditions struct {
	Temperature  *Band `json:"temperature,omitempty"`
	Humidity     *Band `json:"humidity,omitempty"`
	SoilMoisture *Band `json:"soilMoisture,omitempty"`
	Light        *Band `json:"light,omitempty"`
	PH           *Band `json:"ph,omitempty"`
}

// DefaultOptimalConditions are applied when a crop is created without explicit bands.
func DefaultOptimalConditions() OptimalConditions {
	return OptimalConditions{
		Temperature:  &Band{Min: 15, Max: 30},
		Humidity:     &Band{Min: 40, Max: 70},
		SoilMoisture: &Band{Min: 30, Max: 60},
	}
}

// Crop is a cultivated field section with its monitoring reference bands.
type Crop struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Type                CropType          `json:"type"`
	Field               string            `json:"field"`
	Area                float64           `json:"area"` // hectares
	PlantingDate        time.Time         `json:"plantingDate"`
	ExpectedHarvestDate time.Time         `json:"expectedHarvestDate"`
	ActualHarvestDate   *time.Time        `json:"actualHarvestDate,omitempty"`
	Status              CropStatus        `json:"status"`
	OptimalConditions   OptimalConditions `json:"optimalConditions"`
	Notes               *string           `json:"notes,omitempty"`
	OwnerID             uuid.UUID         `json:"ownerId"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// SensorType describes which measurements a device reports.
type SensorType string

const (
	SensorTemperature  SensorType = "temperature"
	SensorHumidity     SensorType = "humidity"
	SensorSoilMoisture SensorType = "soil_moisture"
	SensorLight        SensorType = "light"
	SensorPH           SensorType = "ph"
	SensorMulti        SensorType = "multi"
)

// ParseSensorType validates a raw sensor type string.
func ParseSensorType(s string) (SensorType, error) {
	switch SensorType(s) {
	case SensorTemperature, SensorHumidity, SensorSoilMoisture, SensorLight, SensorPH, SensorMulti:
		return SensorType(s), nil
	}
	return "", fmt.Errorf("unknown sensor type %q", s)
}

// SensorStatus is the operational state of a device. Only active sensors accept data.
type SensorStatus string

const (
	SensorActive      SensorStatus = "active"
	SensorInactive    SensorStatus = "inactive"
	SensorMaintenance SensorStatus = "maintenance"
	SensorError       SensorStatus = "error"
)

// ParseSensorStatus validates a raw sensor status string.
func ParseSensorStatus(s string) (SensorStatus, error) {
	switch SensorStatus(s) {
	case SensorActive, SensorInactive, SensorMaintenance, SensorError:
		return SensorStatus(s), nil
	}
	return "", fmt.Errorf("unknown sensor status %q", s)
}

// Sensor is a registered IoT device, optionally attached to a crop.
type Sensor struct {
	ID              uuid.UUID      `json:"id"`
	DeviceID        string         `json:"deviceId"` // unique external identifier
	Name            string         `json:"name"`
	Type            SensorType     `json:"type"`
	Field           *string        `json:"field,omitempty"`
	CropID          *uuid.UUID     `json:"cropId,omitempty"`
	Status          SensorStatus   `json:"status"`
	LastReading     *ReadingValues `json:"lastReading,omitempty"`
	ReadingInterval int            `json:"readingInterval"` // seconds
	InstalledAt     time.Time      `json:"installedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ReadingValues is one set of measurements. Nil means the sensor did not report
// that parameter; zero is a real measurement.
type ReadingValues struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	SoilMoisture *float64 `json:"soilMoisture,omitempty"`
	Light        *float64 `json:"light,omitempty"`
	PH           *float64 `json:"ph,omitempty"`
}

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a derived annotation for a reading that fell outside a crop's bands.
type Alert struct {
	Severity  Severity `json:"severity"`
	Parameter string   `json:"parameter"`
	Message   string   `json:"message"`
}

// Reading is a stored measurement. Immutable after creation; Alerts are computed
// exactly once at ingestion time.
type Reading struct {
	ID       uuid.UUID `json:"id"`
	SensorID uuid.UUID `json:"sensorId"`
	ReadingValues
	Timestamp time.Time `json:"timestamp"`
	Alerts    []Alert   `json:"alerts"`
	CreatedAt time.Time `json:"createdAt"`
}
