// Package api exposes the judge over HTTP for editor integrations.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"localjudge/internal/config"
	"localjudge/internal/monitor"
	"localjudge/internal/storage"
)

// Server is the HTTP server for the judge API.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	cfg        *config.Config
	startTime  time.Time
}

// NewServer wires routes and middleware around the handler set.
func NewServer(cfg *config.Config, handlers *Handlers, db *storage.DB, metrics *monitor.Metrics) *Server {
	s := &Server{
		handlers:  handlers,
		cfg:       cfg,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /judge", handlers.HandleJudge)
	mux.HandleFunc("POST /judge/stream", handlers.HandleJudgeStream)
	mux.HandleFunc("POST /judge/stop", handlers.HandleStop)
	mux.HandleFunc("POST /compile", handlers.HandleCompile)
	mux.HandleFunc("POST /cache/clear", handlers.HandleClearCache)
	mux.HandleFunc("GET /languages", handlers.HandleLanguages)
	mux.HandleFunc("GET /runs", handlers.HandleListRuns)
	mux.HandleFunc("GET /runs/{id}", handlers.HandleGetRun)
	mux.HandleFunc("GET /health", s.handleHealth(db))
	if metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Wrap the mux innermost-first; Recovery ends up outermost.
	var handler http.Handler = mux
	handler = MetricsMiddleware(metrics)(handler)
	handler = MaxBodyMiddleware(cfg.Server.MaxBodyBytes)(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: judge batches and SSE streams can legitimately
		// outlive any fixed value; executions are bounded by the judge's
		// own time limit.
		IdleTimeout: 120 * time.Second,
	}

	return s
}

// Start begins listening for requests.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbOK := db == nil || db.Healthy(r.Context())

		resp := HealthResponse{
			Status:    "ok",
			Database:  dbOK,
			Languages: len(s.handlers.registry.Languages()),
			Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		}
		if !dbOK {
			resp.Status = "degraded"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
