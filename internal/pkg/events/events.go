// Package events fans security events out to whichever sinks the process
// registered at startup (structured log, dashboard feed).
package events

import (
	"errors"

	"go.uber.org/zap"

	"github.com/anicoll/zerotrust-iot/internal/pkg/metrics"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("sink already registered")

// Sinks register during startup, before any Publish call; the map is not
// guarded for that reason.
var registeredSinks = make(map[string]Sink)

type Sink interface {
	Publish(event model.SecurityEvent) error
}

func RegisterSink(name string, sink Sink) error {
	if _, ok := registeredSinks[name]; ok {
		return errAlreadyRegistered
	}
	registeredSinks[name] = sink
	return nil
}

// Publish delivers the event to every registered sink. A failing sink is
// logged and skipped so one dead dashboard cannot stall the narrative.
func Publish(event model.SecurityEvent) {
	metrics.SecurityEvents.WithLabelValues(string(event.Level)).Inc()
	for name, sink := range registeredSinks {
		if err := sink.Publish(event); err != nil {
			zap.L().Error("failed to publish security event", zap.Error(err), zap.String("sink", name))
			continue
		}
		zap.L().Debug("security event published", zap.String("sink", name), zap.String("kind", event.Kind))
	}
}

// LogSink records events in the structured log. The narrative runner owns
// the terminal during a demonstration, so events must not also print there.
type LogSink struct {
	Logger *zap.Logger
}

func (l LogSink) Publish(event model.SecurityEvent) error {
	l.Logger.Info("security event",
		zap.String("id", event.ID),
		zap.String("level", string(event.Level)),
		zap.String("kind", event.Kind),
		zap.String("message", event.Message),
	)
	return nil
}
