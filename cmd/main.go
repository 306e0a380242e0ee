package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfsummarizer/internal/config"
	"pdfsummarizer/internal/database"
	"pdfsummarizer/internal/extractor"
	"pdfsummarizer/internal/scheduler"
	"pdfsummarizer/internal/session"
	"pdfsummarizer/internal/summarizer"
	"pdfsummarizer/internal/web"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	sessions := session.NewStore(cfg.SessionTTL)
	gemini := summarizer.NewGeminiSummarizer(cfg.GeminiBaseURL, cfg.GeminiModel, log)
	log.InfoContext(ctx, "Summarizer is initialized",
		"model", gemini.Model(),
		"baseURL", cfg.GeminiBaseURL)

	handler := web.New(
		sessions,
		extractor.New(log),
		gemini,
		db,
		cfg.MaxUploadBytes(),
		log,
	)

	sched := scheduler.New(ctx, []scheduler.Sweeper{sessions}, db, cfg.JournalRetention, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"sweepSpec", scheduler.SweepSpec,
			"pruneSpec", scheduler.JournalPruneSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"sweepSpec", scheduler.SweepSpec,
		"pruneSpec", scheduler.JournalPruneSpec,
		"journalRetention", cfg.JournalRetention.String())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	log.InfoContext(ctx, "Server is started",
		"listenAddr", cfg.ListenAddr,
		"maxUploadBytes", cfg.MaxUploadBytes())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-serveErr:
		log.ErrorContext(ctx, "Server failed",
			"error", err,
			"listenAddr", cfg.ListenAddr)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Server is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}
