package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

func TestReading_BaselineBounds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		device     model.Device
		tempLo     float64
		tempHi     float64
		humidityLo float64
		humidityHi float64
	}{
		{model.Device{ID: "zero-trust-temperature-sensor-01"}, 15, 25, 40, 60},
		{model.Device{ID: "zero-trust-humidity-monitor-02"}, 20, 30, 35, 55},
		{model.Device{ID: "zero-trust-motion-detector-03"}, 20, 30, 40, 60},
	}

	for _, tc := range cases {
		t.Run(tc.device.ID, func(t *testing.T) {
			g := NewGenerator(1, 0.05)
			for i := 1; i <= 1000; i++ {
				r := g.Reading(tc.device, i)
				assert.Equal(t, tc.device.ID, r.DeviceID)
				assert.Equal(t, i, r.MessageCount)
				assert.GreaterOrEqual(t, r.Temperature, tc.tempLo)
				assert.LessOrEqual(t, r.Temperature, tc.tempHi)
				assert.GreaterOrEqual(t, r.Humidity, tc.humidityLo)
				assert.LessOrEqual(t, r.Humidity, tc.humidityHi)
				assert.GreaterOrEqual(t, r.BatteryLevel, 20.0)
				assert.LessOrEqual(t, r.BatteryLevel, 100.0)
				assert.GreaterOrEqual(t, r.SignalStrength, -80)
				assert.LessOrEqual(t, r.SignalStrength, -30)
			}
		})
	}
}

func TestReading_AnomalyRateConverges(t *testing.T) {
	t.Parallel()
	const (
		n         = 20000
		rate      = 0.05
		tolerance = 0.01
	)

	g := NewGenerator(42, rate)
	device := model.Device{ID: "zero-trust-temperature-sensor-01"}

	anomalies := 0
	for i := 1; i <= n; i++ {
		r := g.Reading(device, i)
		if r.Anomaly != nil {
			anomalies++
			assert.Contains(t, anomalyTypes, r.Anomaly.Type)
			assert.Contains(t, severities, r.Anomaly.Severity)
			assert.Equal(t, anomalyDescription, r.Anomaly.Description)
		}
	}

	observed := float64(anomalies) / float64(n)
	assert.InDelta(t, rate, observed, tolerance)
}

func TestReading_ZeroAnomalyRate(t *testing.T) {
	t.Parallel()
	g := NewGenerator(7, 0)
	for i := 1; i <= 1000; i++ {
		r := g.Reading(model.Device{ID: "x"}, i)
		assert.Nil(t, r.Anomaly)
	}
}

func TestProperties(t *testing.T) {
	t.Parallel()
	reading := model.Reading{DeviceID: "zero-trust-temperature-sensor-01"}

	props := Properties(reading)
	assert.Equal(t, "sensor", props["deviceType"])
	assert.Equal(t, props["location"], Properties(reading)["location"]) // zone is stable
	assert.NotContains(t, props, "alertLevel")

	reading.Anomaly = &model.Anomaly{Type: model.AnomalyLowBattery, Severity: model.SeverityHigh}
	props = Properties(reading)
	assert.Equal(t, "high", props["alertLevel"])
}

func TestZone_InRange(t *testing.T) {
	t.Parallel()
	for _, id := range []string{"a", "b", "zero-trust-motion-detector-03"} {
		zone := Zone(id)
		require.GreaterOrEqual(t, zone, 1)
		require.LessOrEqual(t, zone, 3)
	}
}
