package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/zerotrust-iot/internal/pkg/config"
	"github.com/anicoll/zerotrust-iot/internal/pkg/dashboard"
	"github.com/anicoll/zerotrust-iot/internal/pkg/events"
	"github.com/anicoll/zerotrust-iot/internal/pkg/hub"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
	"github.com/anicoll/zerotrust-iot/internal/pkg/narrative"
	"github.com/anicoll/zerotrust-iot/internal/pkg/registry"
	"github.com/anicoll/zerotrust-iot/internal/pkg/simulator"
)

const (
	DefaultMessageInterval = 60 * time.Second
	DefaultDuration        = 30 * time.Minute
	DefaultSendTimeout     = 10 * time.Second

	minNarrativePause = 3 * time.Second
	maxNarrativePause = 6 * time.Second
)

// DemoCommand runs the full demonstration: dashboard, device telemetry,
// operator gates, attack narrative, live probes, heartbeat.
func DemoCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := dashboard.New(cfg.DashboardCfg)
	if err := events.RegisterSink("log", events.LogSink{Logger: logger}); err != nil {
		return err
	}
	if err := events.RegisterSink("dashboard", board.Sink()); err != nil {
		return err
	}

	// A missing credential file degrades the telemetry phase to a warning
	// rather than aborting the whole demonstration.
	var dispatch DispatchService
	var probes []narrative.Probe
	connections, err := registry.Load(cfg.SimulatorCfg.ConnectionsFile)
	switch {
	case errors.Is(err, registry.ErrNoCredentials):
		logger.Warn("continuing without device telemetry")
	case err != nil:
		return err
	default:
		sim := simulator.New(cfg.SimulatorCfg, hubDialer(cfg.SimulatorCfg.SendTimeout))
		if err := sim.Setup(registry.Devices(connections)); err != nil {
			logger.Warn("device setup failed, continuing without telemetry", zap.Error(err))
		} else {
			dispatch = sim
		}
		probes = narrative.Probes(connections, cfg.SimulatorCfg.SendTimeout)
	}

	runner := narrative.New(os.Stdout, minNarrativePause, maxNarrativePause)
	gate := NewGate(os.Stdin, os.Stdout)

	return runDemo(ctx, cfg, board, dispatch, runner, probes, gate, os.Stdout)
}

// runDemo is the orchestrator. Control flow is linear: background services
// start, the operator confirms, the narrative plays, then the process
// idles on a heartbeat until interrupted. Teardown is whole-process via
// context cancellation; a child that fails to stop is not escalated.
func runDemo(
	ctx context.Context,
	cfg *config.Config,
	board DashboardService,
	dispatch DispatchService,
	runner NarrativeService,
	probes []narrative.Probe,
	gate OperatorGate,
	out io.Writer,
) error {
	printBanner(out)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return board.Run(ctx)
	})

	if dispatch != nil {
		eg.Go(func() error {
			if err := dispatch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	eg.Go(func() error {
		if err := gate.Wait(ctx, "\nPress ENTER when the dashboard is open and showing live data... "); err != nil {
			return err
		}
		if err := gate.Wait(ctx, "Press ENTER to start the attack simulation... "); err != nil {
			return err
		}
		if err := runner.Run(ctx, narrative.Script()); err != nil {
			return err
		}
		if err := runner.RunProbes(ctx, probes); err != nil {
			return err
		}
		printArchitectureSummary(out)
		return heartbeat(ctx, out, cfg.DashboardCfg.Addr)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if dispatch != nil {
		_, _ = fmt.Fprintf(out, "\nDemonstration ended. Total telemetry messages sent: %d\n", dispatch.TotalSent())
	}
	return nil
}

// SimulateCommand runs only the device dispatch loop.
func SimulateCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	connections, err := registry.Load(cfg.SimulatorCfg.ConnectionsFile)
	if err != nil {
		return err
	}

	sim := simulator.New(cfg.SimulatorCfg, hubDialer(cfg.SimulatorCfg.SendTimeout))
	if err := sim.Setup(registry.Devices(connections)); err != nil {
		return err
	}
	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// AttackCommand runs only the scripted narrative plus the live probes.
func AttackCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := events.RegisterSink("log", events.LogSink{Logger: logger}); err != nil {
		return err
	}

	// Probes need real credentials; the scripted sequence does not.
	var probes []narrative.Probe
	if connections, err := registry.Load(cfg.SimulatorCfg.ConnectionsFile); err == nil {
		probes = narrative.Probes(connections, cfg.SimulatorCfg.SendTimeout)
	}

	gate := NewGate(os.Stdin, os.Stdout)
	if err := gate.Wait(ctx, "Press ENTER to start the attack simulation (make sure the dashboard is open)... "); err != nil {
		return err
	}

	runner := narrative.New(os.Stdout, minNarrativePause, maxNarrativePause)
	if err := runner.Run(ctx, narrative.Script()); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if err := runner.RunProbes(ctx, probes); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// DashboardCommand serves only the dashboard.
func DashboardCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := dashboard.New(cfg.DashboardCfg)
	if err := events.RegisterSink("dashboard", board.Sink()); err != nil {
		return err
	}
	return board.Run(ctx)
}

// heartbeat prints a periodic liveness line until the operator interrupts.
func heartbeat(ctx context.Context, out io.Writer, dashboardAddr string) error {
	_, _ = fmt.Fprintln(out, "\nPress Ctrl+C to end the demonstration")
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		_, _ = fmt.Fprintf(out, "demo running... %s - dashboard: http://%s\n",
			time.Now().Format(time.TimeOnly), dashboardAddr)
	}); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func hubDialer(timeout time.Duration) simulator.Dialer {
	return func(device model.Device) (simulator.Conn, error) {
		return hub.NewClient(device.ConnectionString, timeout)
	}
}

// configFrom layers explicitly-set flags over the environment baseline, so
// every tuning knob stays readable from the environment even when the
// corresponding flag was never passed.
func configFrom(c *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if c.IsSet("device-connections") {
		cfg.SimulatorCfg.ConnectionsFile = c.String("device-connections")
	}
	if c.IsSet("message-interval") {
		cfg.SimulatorCfg.MessageInterval = c.Duration("message-interval")
	}
	if c.IsSet("duration") {
		cfg.SimulatorCfg.Duration = c.Duration("duration")
	}
	if c.IsSet("anomaly-rate") {
		cfg.SimulatorCfg.AnomalyRate = c.Float64("anomaly-rate")
	}
	if c.IsSet("send-timeout") {
		cfg.SimulatorCfg.SendTimeout = c.Duration("send-timeout")
	}
	if c.IsSet("dashboard-addr") {
		cfg.DashboardCfg.Addr = c.String("dashboard-addr")
	}
	if c.IsSet("dashboard-dir") {
		cfg.DashboardCfg.StaticDir = c.String("dashboard-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	var err error
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	zap.ReplaceGlobals(logger)
	return logger, nil
}
