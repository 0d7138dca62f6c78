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

	"github.com/joho/godotenv"

	"github.com/ernissmal/image-generator-app/internal/config"
	"github.com/ernissmal/image-generator-app/internal/httpserver"
	"github.com/ernissmal/image-generator-app/pkg/adapters"
	"github.com/ernissmal/image-generator-app/pkg/dispatch"
	"github.com/ernissmal/image-generator-app/pkg/generator"
	"github.com/ernissmal/image-generator-app/pkg/imgsource"
	"github.com/ernissmal/image-generator-app/pkg/prompt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	if err := run(cfg); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx := context.Background()

	store, err := prompt.NewStore(cfg.TemplateSchema)
	if err != nil {
		return err
	}
	if err := store.LoadAll(cfg.TemplateDir); err != nil {
		return err
	}

	gemini, err := adapters.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}

	limiter, err := dispatch.NewWindowLimiter(cfg.MaxPerWindow, cfg.RateWindow)
	if err != nil {
		return err
	}
	dispatcher, err := dispatch.NewDispatcher(gemini, limiter, dispatch.Config{
		MaxAttempts: cfg.MaxRetries,
		CallTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	batch, err := generator.NewBatch(dispatcher, store, cfg.SuccessThreshold)
	if err != nil {
		return err
	}
	sequencer, err := generator.NewSequencer(dispatcher)
	if err != nil {
		return err
	}
	environments, err := generator.NewEnvironments(dispatcher, store)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.UploadDir, cfg.GeneratedDir, cfg.ReferencesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Uploads live on local disk, so no HTTP or GCS fetchers are wired here.
	loader := imgsource.NewLoader(nil, nil, nil, 0)

	server, err := httpserver.NewServer(batch, sequencer, environments, loader, store, gemini,
		cfg.UploadDir, cfg.GeneratedDir, cfg.ReferencesDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", srv.Addr, "model", cfg.GeminiModel)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
