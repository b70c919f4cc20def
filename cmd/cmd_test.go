package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/anicoll/zerotrust-iot/internal/pkg/config"
	"github.com/anicoll/zerotrust-iot/internal/pkg/narrative"
)

func testConfig() *config.Config {
	return &config.Config{
		SimulatorCfg: &config.SimulatorConfig{},
		DashboardCfg: &config.DashboardConfig{Addr: "localhost:0"},
		LogLevel:     "INFO",
	}
}

func TestRunDemo_DashboardErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("bind failed")
	board := &MockDashboardService{
		RunFunc: func(ctx context.Context) error { return boom },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &bytes.Buffer{}
	err := runDemo(ctx, testConfig(), board, nil, &MockNarrativeService{
		RunFunc: func(ctx context.Context, scenarios []narrative.Scenario) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, nil, &MockGate{
		WaitFunc: func(ctx context.Context, prompt string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, out)

	assert.ErrorIs(t, err, boom)
}

func TestRunDemo_DispatchErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("send exploded")
	dispatch := &MockDispatchService{
		RunFunc: func(ctx context.Context) error { return boom },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &bytes.Buffer{}
	err := runDemo(ctx, testConfig(), &MockDashboardService{}, dispatch, &MockNarrativeService{
		RunFunc: func(ctx context.Context, scenarios []narrative.Scenario) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, nil, &MockGate{
		WaitFunc: func(ctx context.Context, prompt string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, out)

	assert.ErrorIs(t, err, boom)
}

func TestRunDemo_OperatorInterruptIsCleanExit(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var prompts []string
	narrativeRan := false
	probesRan := false

	gate := &MockGate{
		WaitFunc: func(ctx context.Context, prompt string) error {
			prompts = append(prompts, prompt)
			return nil
		},
	}
	runner := &MockNarrativeService{
		RunFunc: func(ctx context.Context, scenarios []narrative.Scenario) error {
			narrativeRan = true
			assert.Len(t, scenarios, 7)
			return nil
		},
		RunProbesFunc: func(ctx context.Context, probes []narrative.Probe) error {
			probesRan = true
			cancel() // operator hits Ctrl+C once the narrative has finished
			return nil
		},
	}
	dispatch := &MockDispatchService{
		TotalSentFunc: func() int { return 42 },
	}

	out := &bytes.Buffer{}
	err := runDemo(ctx, testConfig(), &MockDashboardService{}, dispatch, runner, nil, gate, out)

	require.NoError(t, err)
	assert.True(t, narrativeRan)
	assert.True(t, probesRan)
	assert.Len(t, prompts, 2)
	assert.Contains(t, out.String(), "Total telemetry messages sent: 42")
}

func TestRunDemo_GateErrorAborts(t *testing.T) {
	t.Parallel()
	boom := errors.New("stdin closed unexpectedly")
	gate := &MockGate{
		WaitFunc: func(ctx context.Context, prompt string) error { return boom },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &bytes.Buffer{}
	err := runDemo(ctx, testConfig(), &MockDashboardService{}, nil, &MockNarrativeService{}, nil, gate, out)

	assert.ErrorIs(t, err, boom)
}

func TestGate_WaitReturnsOnNewline(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}
	gate := NewGate(strings.NewReader("\n"), out)

	err := gate.Wait(context.Background(), "Press ENTER... ")
	require.NoError(t, err)
	assert.Equal(t, "Press ENTER... ", out.String())
}

func TestGate_WaitReturnsOnEOF(t *testing.T) {
	t.Parallel()
	gate := NewGate(strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, gate.Wait(context.Background(), ""))
}

func TestGate_WaitRespectsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := NewGate(blockingReader{}, &bytes.Buffer{})
	assert.ErrorIs(t, gate.Wait(ctx, ""), context.Canceled)
}

func TestGate_WaitReusableAfterCancel(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	gate := NewGate(r, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, gate.Wait(ctx, ""), context.Canceled)

	// The abandoned Wait must not leave a second reader competing for the
	// input; one ENTER satisfies the next gate.
	go func() {
		_, _ = w.Write([]byte("\n"))
	}()
	assert.NoError(t, gate.Wait(context.Background(), ""))
}

func TestConfigFrom_EnvBaselineAndFlagOverride(t *testing.T) {
	t.Setenv("ANOMALY_RATE", "0.2")
	t.Setenv("DASHBOARD_ADDR", "127.0.0.1:9999")

	var cfg *config.Config
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "anomaly-rate", Value: 0.05},
			&cli.StringFlag{Name: "dashboard-addr", Value: "0.0.0.0:8080"},
			&cli.DurationFlag{Name: "message-interval", Value: DefaultMessageInterval},
		},
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = configFrom(c)
			return err
		},
	}
	require.NoError(t, app.Run([]string{"zerotrust-demo", "--message-interval", "5s"}))
	require.NotNil(t, cfg)

	// environment values survive when the flag was never passed
	assert.InDelta(t, 0.2, cfg.SimulatorCfg.AnomalyRate, 1e-9)
	assert.Equal(t, "127.0.0.1:9999", cfg.DashboardCfg.Addr)
	// an explicitly passed flag wins
	assert.Equal(t, 5*time.Second, cfg.SimulatorCfg.MessageInterval)
	// untouched knobs keep their defaults
	assert.Equal(t, "device_connections.json", cfg.SimulatorCfg.ConnectionsFile)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {} // never returns, the gate must bail out via ctx
}
