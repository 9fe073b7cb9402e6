package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"localjudge/internal/api"
	"localjudge/internal/compiler"
	"localjudge/internal/config"
	"localjudge/internal/executor"
	"localjudge/internal/judge"
	"localjudge/internal/language"
	"localjudge/internal/monitor"
	"localjudge/internal/storage"
)

func main() {
	// Structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/judge.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := monitor.NewMetrics()
	var tracer *monitor.Tracer
	if cfg.Tracing.Enabled {
		tracer = monitor.NewTracer()
	}

	registry := language.NewRegistry()
	registry.Reload(cfg.LanguageConfigs())

	comp := compiler.New(registry, compiler.NewMemoryCache(), cfg.OutputDir(), metrics)
	exe := executor.New(registry, cfg.TimeLimit(), metrics)

	j := judge.New(registry, comp, exe, metrics, tracer)
	j.SetComparisonMode(judge.CompareMode(cfg.Judge.Comparison))
	j.SetExecMode(judge.ExecMode(cfg.Judge.ExecutionMode))

	runs := judge.NewRunManager(metrics)

	// Run history is optional; the judge works without a database.
	var db *storage.DB
	if cfg.Database.DSN != "" {
		db, err = storage.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, run history disabled")
		} else {
			defer db.Close()
		}
	}

	var history *storage.HistoryWriter
	if db != nil {
		history = storage.NewHistoryWriter(db, 1000)
		history.Start()
		defer history.Flush(10 * time.Second)
	}

	handlers := api.NewHandlers(j, comp, registry, runs, db, history, metrics)
	server := api.NewServer(cfg, handlers, db, metrics)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		log.Info().Str("signal", sig.String()).Msg("shutting down")

		runs.StopAll()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		cancel()
	}()

	log.Info().
		Str("addr", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Int("languages", len(registry.Languages())).
		Bool("db_enabled", db != nil).
		Msg("judge server starting")

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}
