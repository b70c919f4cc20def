package telemetry

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

const anomalyDescription = "Simulated anomaly for demo purposes"

var (
	anomalyTypes = []model.AnomalyType{
		model.AnomalyTemperatureSpike,
		model.AnomalyUnusualMotion,
		model.AnomalyLowBattery,
	}
	severities = []model.Severity{
		model.SeverityLow,
		model.SeverityMedium,
		model.SeverityHigh,
	}
)

// Generator produces synthetic readings. It is pure computation over its
// random source; there is no I/O and no failure mode. A Generator is not
// safe for concurrent use, each device task owns its own.
type Generator struct {
	rng         *rand.Rand
	anomalyRate float64
	now         func() time.Time
}

func NewGenerator(seed int64, anomalyRate float64) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewSource(seed)),
		anomalyRate: anomalyRate,
		now:         time.Now,
	}
}

// Reading draws one reading for the device. Numeric fields are uniform
// offsets around the category baseline; no clamping is applied.
func (g *Generator) Reading(device model.Device, sequence int) model.Reading {
	baseTemperature, baseHumidity := baselines(device.Category())

	reading := model.Reading{
		DeviceID:       device.ID,
		Timestamp:      g.now().UTC(),
		Temperature:    round(baseTemperature+g.uniform(-5, 5), 2),
		Humidity:       round(baseHumidity+g.uniform(-10, 10), 2),
		Motion:         g.rng.Intn(2) == 0,
		BatteryLevel:   round(g.uniform(20, 100), 1),
		SignalStrength: -80 + g.rng.Intn(51),
		MessageCount:   sequence,
	}

	if g.rng.Float64() < g.anomalyRate {
		reading.Anomaly = &model.Anomaly{
			Type:        anomalyTypes[g.rng.Intn(len(anomalyTypes))],
			Severity:    severities[g.rng.Intn(len(severities))],
			Description: anomalyDescription,
		}
	}
	return reading
}

// Properties is the message property bag the hub uses for routing and
// filtering.
func Properties(reading model.Reading) map[string]string {
	properties := map[string]string{
		"deviceType": "sensor",
		"location":   fmt.Sprintf("zone-%d", Zone(reading.DeviceID)),
	}
	if reading.Anomaly != nil {
		properties["alertLevel"] = string(reading.Anomaly.Severity)
	}
	return properties
}

// Zone assigns a device to one of three stable zones.
func Zone(deviceID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	return int(h.Sum32()%3) + 1
}

func baselines(category model.Category) (temperature, humidity float64) {
	temperature, humidity = 25.0, 50.0
	if category == model.CategoryTemperature {
		temperature = 20.0
	}
	if category == model.CategoryHumidity {
		humidity = 45.0
	}
	return temperature, humidity
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
