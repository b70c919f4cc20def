package cmd

import (
	"context"

	"github.com/anicoll/zerotrust-iot/internal/pkg/events"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
	"github.com/anicoll/zerotrust-iot/internal/pkg/narrative"
)

// MockDispatchService implements DispatchService for tests.
type MockDispatchService struct {
	RunFunc       func(ctx context.Context) error
	TotalSentFunc func() int
}

func (m *MockDispatchService) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockDispatchService) TotalSent() int {
	if m.TotalSentFunc != nil {
		return m.TotalSentFunc()
	}
	return 0
}

// MockDashboardService implements DashboardService for tests.
type MockDashboardService struct {
	RunFunc  func(ctx context.Context) error
	SinkFunc func() events.Sink
}

func (m *MockDashboardService) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return nil
}

func (m *MockDashboardService) Sink() events.Sink {
	if m.SinkFunc != nil {
		return m.SinkFunc()
	}
	return discardSink{}
}

type discardSink struct{}

func (discardSink) Publish(model.SecurityEvent) error { return nil }

// MockNarrativeService implements NarrativeService for tests.
type MockNarrativeService struct {
	RunFunc       func(ctx context.Context, scenarios []narrative.Scenario) error
	RunProbesFunc func(ctx context.Context, probes []narrative.Probe) error
}

func (m *MockNarrativeService) Run(ctx context.Context, scenarios []narrative.Scenario) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, scenarios)
	}
	return nil
}

func (m *MockNarrativeService) RunProbes(ctx context.Context, probes []narrative.Probe) error {
	if m.RunProbesFunc != nil {
		return m.RunProbesFunc(ctx, probes)
	}
	return nil
}

// MockGate implements OperatorGate for tests.
type MockGate struct {
	WaitFunc func(ctx context.Context, prompt string) error
}

func (m *MockGate) Wait(ctx context.Context, prompt string) error {
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, prompt)
	}
	return nil
}
