package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/web"
)

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(cfg *config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer database.Close()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	bucket, err := openBucket(cfg, database)
	if err != nil {
		return err
	}

	spool, err := device.NewSpool(os.TempDir())
	if err != nil {
		return err
	}
	defer spool.Close()

	// One limiter for both login forms so a client cannot double its budget.
	limiter := api.NewRateLimiter(10, 5)

	webServer, err := web.NewServer(web.Config{
		DB:           database,
		JWTSecret:    jwtSecret,
		Bucket:       bucket,
		Spool:        spool,
		LoginLimiter: limiter,
	})
	if err != nil {
		return fmt.Errorf("setting up web UI: %w", err)
	}
	apiRouter := api.NewRouter(api.Config{
		DB:           database,
		JWTSecret:    jwtSecret,
		Bucket:       bucket,
		Spool:        spool,
		Sessions:     webServer.Sessions(),
		LoginLimiter: limiter,
	})

	// Combine: API and media routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/media/", apiRouter)
	mux.Handle("/", webServer.Handler())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "public_url", cfg.BaseURL(), "s3", cfg.UseS3())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database", "sessions", webServer.Sessions().Len())
	return nil
}
