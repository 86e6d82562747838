// Package server exposes the driveoff HTTP surface.
//
// Two kinds of routes live here: the interactive operations an
// administrator triggers (connection test, bulk migration, remote file
// info) and the event webhook the host posts attachment lifecycle
// events to. Everything else in the system is event-driven.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/logger"
	"github.com/koustreak/driveoff/internal/offload"
	"github.com/koustreak/driveoff/internal/record"
)

// Server wires the offload service into an HTTP listener.
type Server struct {
	cfg     *config.Config
	svc     *offload.Service
	records record.Store
	log     *logger.Logger
	http    *http.Server
}

// New builds a Server from its collaborators.
func New(cfg *config.Config, svc *offload.Service, records record.Store, log *logger.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		records: records,
		log:     log,
	}

	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	return s
}

// Router builds the chi route tree. Exposed separately so tests can
// drive it with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.handlePing)
		r.Get("/test-connection", s.handleTestConnection)
		r.Post("/migrate", s.handleMigrate)
		r.Post("/events", s.handleEvent)

		r.Route("/files/{name}", func(r chi.Router) {
			r.Get("/info", s.handleFileInfo)
			r.Get("/content", s.handleFileContent)
		})
	})

	return r
}

// ListenAndServe runs the HTTP listener until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.With().Str("addr", s.http.Addr).Logger().Info("http server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
