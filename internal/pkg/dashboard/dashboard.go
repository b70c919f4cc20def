// Package dashboard serves the static demo page, the live security event
// feed and the prometheus endpoint.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anicoll/zerotrust-iot/internal/pkg/config"
	"github.com/anicoll/zerotrust-iot/internal/pkg/events"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
	"github.com/anicoll/zerotrust-iot/pkg/wsfeed"
)

type Server struct {
	cfg    *config.DashboardConfig
	feed   *wsfeed.Feed
	logger *zap.Logger
}

func New(cfg *config.DashboardConfig) *Server {
	logger := zap.L()
	return &Server{
		cfg:    cfg,
		logger: logger,
		feed: wsfeed.New(
			wsfeed.WithPingInterval(30*time.Second),
			wsfeed.OnConnect(func(remoteAddr string) {
				logger.Info("dashboard connected to event feed", zap.String("remote", remoteAddr))
			}),
		),
	}
}

// Sink adapts the websocket feed into a security event sink.
func (s *Server) Sink() events.Sink {
	return feedSink{feed: s.feed}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      LoggingMiddleware(s.handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the event feed holds connections open
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.feed.Close()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard server started", zap.String("addr", s.cfg.Addr), zap.String("dir", s.cfg.StaticDir))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	mux.HandleFunc("/ws", s.feed.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

type feedSink struct {
	feed *wsfeed.Feed
}

func (f feedSink) Publish(event model.SecurityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f.feed.Broadcast(payload)
	return nil
}
