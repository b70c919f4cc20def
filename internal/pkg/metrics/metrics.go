package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_messages_sent_total",
			Help: "Telemetry messages accepted by the hub, per device",
		},
		[]string{"device_id"},
	)

	MessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_messages_failed_total",
			Help: "Telemetry sends that failed, per device",
		},
		[]string{"device_id"},
	)

	AnomaliesInjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_anomalies_injected_total",
			Help: "Readings that carried a synthetic anomaly annotation",
		},
		[]string{"device_id", "type"},
	)

	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Security events emitted to the dashboard feed",
		},
		[]string{"level"},
	)

	ProbeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probe_outcomes_total",
			Help: "Live probe results by classified outcome",
		},
		[]string{"outcome"},
	)

	ConnectedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulator_connected_devices",
			Help: "Devices currently holding a hub connection",
		},
	)
)
