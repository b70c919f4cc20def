package cmd

import (
	"context"

	"github.com/anicoll/zerotrust-iot/internal/pkg/events"
	"github.com/anicoll/zerotrust-iot/internal/pkg/narrative"
)

// DispatchService is what the orchestrator needs from the telemetry
// simulator.
type DispatchService interface {
	Run(ctx context.Context) error
	TotalSent() int
}

// DashboardService serves the static page and exposes a sink for the
// security event feed.
type DashboardService interface {
	Run(ctx context.Context) error
	Sink() events.Sink
}

// NarrativeService walks the scripted sequence and the live probes.
type NarrativeService interface {
	Run(ctx context.Context, scenarios []narrative.Scenario) error
	RunProbes(ctx context.Context, probes []narrative.Probe) error
}

// OperatorGate blocks a phase until the operator confirms.
type OperatorGate interface {
	Wait(ctx context.Context, prompt string) error
}
