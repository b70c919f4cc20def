// Package simulator runs the telemetry dispatch loop: one concurrent send
// per registered device per tick, joined before the next tick begins.
package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/zerotrust-iot/internal/pkg/config"
	"github.com/anicoll/zerotrust-iot/internal/pkg/metrics"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
	"github.com/anicoll/zerotrust-iot/internal/pkg/telemetry"
)

var ErrNoDevices = errors.New("no devices initialized")

// Conn is the hub connection one device holds for its lifetime.
type Conn interface {
	Connect() error
	SendTelemetry(reading model.Reading, properties map[string]string) error
	Disconnect()
}

// Dialer builds an unconnected Conn from a device record.
type Dialer func(device model.Device) (Conn, error)

// device state is owned exclusively by that device's task within a tick;
// ticks are joined, so no locking is needed.
type device struct {
	record    model.Device
	conn      Conn
	generator *telemetry.Generator
	sent      int
}

type Simulator struct {
	cfg     *config.SimulatorConfig
	dial    Dialer
	logger  *zap.Logger
	devices []*device
}

func New(cfg *config.SimulatorConfig, dial Dialer) *Simulator {
	return &Simulator{
		cfg:    cfg,
		dial:   dial,
		logger: zap.L(),
	}
}

// Setup dials and connects every record. A device that fails to connect is
// dropped with a logged error; Setup fails only when nothing connected.
func (s *Simulator) Setup(records []model.Device) error {
	for i, record := range records {
		conn, err := s.dial(record)
		if err != nil {
			s.logger.Error("device setup failed", zap.String("device", record.ID), zap.Error(err))
			continue
		}
		if err := conn.Connect(); err != nil {
			s.logger.Error("device connection failed", zap.String("device", record.ID), zap.Error(err))
			continue
		}
		s.devices = append(s.devices, &device{
			record:    record,
			conn:      conn,
			generator: telemetry.NewGenerator(time.Now().UnixNano()+int64(i), s.cfg.AnomalyRate),
		})
		s.logger.Info("device connected securely", zap.String("device", record.ID))
		metrics.ConnectedDevices.Inc()
	}

	if len(s.devices) == 0 {
		return ErrNoDevices
	}
	s.logger.Info("devices initialized", zap.Int("count", len(s.devices)))
	return nil
}

// Run drives dispatch ticks until the duration budget is spent or ctx is
// cancelled, then disconnects every device.
func (s *Simulator) Run(ctx context.Context) error {
	if len(s.devices) == 0 {
		return ErrNoDevices
	}

	s.logger.Info("starting telemetry simulation",
		zap.Duration("duration", s.cfg.Duration),
		zap.Duration("message_interval", s.cfg.MessageInterval),
		zap.Int("devices", len(s.devices)),
	)

	budget := time.NewTimer(s.cfg.Duration)
	defer budget.Stop()
	ticker := time.NewTicker(s.cfg.MessageInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-budget.C:
			s.logger.Info("simulation duration budget exhausted")
			s.shutdown()
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick fires one send per device concurrently and waits for all of them to
// settle. A failed send is logged and skipped; the device counter only
// advances on success and the next tick simply tries again.
func (s *Simulator) tick(ctx context.Context) {
	eg, _ := errgroup.WithContext(ctx)
	for _, d := range s.devices {
		d := d
		eg.Go(func() error {
			reading := d.generator.Reading(d.record, d.sent+1)
			if err := d.conn.SendTelemetry(reading, telemetry.Properties(reading)); err != nil {
				s.logger.Error("telemetry send failed", zap.String("device", d.record.ID), zap.Error(err))
				metrics.MessagesFailed.WithLabelValues(d.record.ID).Inc()
				return nil
			}
			d.sent++
			metrics.MessagesSent.WithLabelValues(d.record.ID).Inc()
			if reading.Anomaly != nil {
				metrics.AnomaliesInjected.WithLabelValues(d.record.ID, string(reading.Anomaly.Type)).Inc()
			}
			s.logger.Info("telemetry sent",
				zap.String("device", d.record.ID),
				zap.Int("message", d.sent),
				zap.Bool("anomaly", reading.Anomaly != nil),
			)
			return nil
		})
	}
	_ = eg.Wait()
}

func (s *Simulator) shutdown() {
	s.logger.Info("cleaning up device connections")
	for _, d := range s.devices {
		d.conn.Disconnect()
		metrics.ConnectedDevices.Dec()
	}
	s.logger.Info("simulation complete", zap.Int("total_messages", s.TotalSent()))
}

// TotalSent is the number of successfully dispatched messages across all
// devices. Only safe to call between ticks or after Run returns.
func (s *Simulator) TotalSent() int {
	return lo.SumBy(s.devices, func(d *device) int { return d.sent })
}
