package model

import (
	"strings"
	"time"
)

// Category selects the baseline value range a device's readings are drawn
// from. It is derived from the device identifier and nothing else.
type Category string

const (
	CategoryTemperature Category = "temperature"
	CategoryHumidity    Category = "humidity"
	CategoryMotion      Category = "motion"
	CategoryGeneric     Category = "generic"
)

// Device is a simulated IoT endpoint: an identifier plus an opaque bearer
// credential. The credential is never inspected outside the hub client.
type Device struct {
	ID               string
	ConnectionString string
}

func (d Device) Category() Category {
	id := strings.ToLower(d.ID)
	switch {
	case strings.Contains(id, "temp"):
		return CategoryTemperature
	case strings.Contains(id, "humidity"):
		return CategoryHumidity
	case strings.Contains(id, "motion"):
		return CategoryMotion
	}
	return CategoryGeneric
}

type AnomalyType string

const (
	AnomalyTemperatureSpike AnomalyType = "temperature_spike"
	AnomalyUnusualMotion    AnomalyType = "unusual_motion"
	AnomalyLowBattery       AnomalyType = "low_battery"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
}

// Reading is one synthetic sensor data point. It is created per dispatch
// tick, serialized, sent and discarded; no history is retained.
type Reading struct {
	DeviceID       string    `json:"deviceId"`
	Timestamp      time.Time `json:"timestamp"`
	Temperature    float64   `json:"temperature"`
	Humidity       float64   `json:"humidity"`
	Motion         bool      `json:"motion"`
	BatteryLevel   float64   `json:"batteryLevel"`
	SignalStrength int       `json:"signalStrength"`
	MessageCount   int       `json:"messageCount"`
	Anomaly        *Anomaly  `json:"anomaly,omitempty"`
}
