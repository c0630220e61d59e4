// Package alerts derives warning/critical annotations for sensor readings that
// fall outside a crop's optimal-condition bands.
package alerts

import (
	"fmt"

	"github.com/orusagri/agrimon/internal/model"
)

// check pairs one reported value with its configured band. Unit is appended to
// values in messages; label is the human-readable parameter name.
type check struct {
	parameter string
	label     string
	unit      string
	value     *float64
	band      *model.Band
	// soil moisture below its minimum is operationally the most urgent signal,
	// so only that case escalates to critical
	criticalBelow bool
}

// Evaluate compares a reading against the crop's bands and returns zero or more
// alerts. It is pure: same inputs always yield the same ordered list
// (temperature, humidity, soilMoisture, light, ph). A parameter missing from
// the reading or without a configured band is skipped. Zero is a real
// measurement, not an absent one.
func Evaluate(r model.ReadingValues, oc model.OptimalConditions) []model.Alert {
	checks := []check{
		{parameter: "temperature", label: "Temperature", unit: "°C", value: r.Temperature, band: oc.Temperature},
		{parameter: "humidity", label: "Humidity", unit: "%", value: r.Humidity, band: oc.Humidity},
		{parameter: "soilMoisture", label: "Soil moisture", unit: "%", value: r.SoilMoisture, band: oc.SoilMoisture, criticalBelow: true},
		{parameter: "light", label: "Light", unit: " lx", value: r.Light, band: oc.Light},
		{parameter: "ph", label: "pH", unit: "", value: r.PH, band: oc.PH},
	}

	var out []model.Alert
	for _, c := range checks {
		if c.value == nil || c.band == nil {
			continue
		}
		v := *c.value
		switch {
		case v < c.band.Min:
			severity := model.SeverityWarning
			if c.criticalBelow {
				severity = model.SeverityCritical
			}
			out = append(out, model.Alert{
				Severity:  severity,
				Parameter: c.parameter,
				Message:   message(c, v, "low"),
			})
		case v > c.band.Max:
			out = append(out, model.Alert{
				Severity:  model.SeverityWarning,
				Parameter: c.parameter,
				Message:   message(c, v, "high"),
			})
		}
	}
	return out
}

func message(c check, v float64, direction string) string {
	return fmt.Sprintf("%s %s: %v%s (optimal: %v-%v%s)",
		c.label, direction, v, c.unit, c.band.Min, c.band.Max, c.unit)
}
