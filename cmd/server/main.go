package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/sehatin-api/internal/config"
	"github.com/Brownie44l1/sehatin-api/internal/handlers"
	"github.com/Brownie44l1/sehatin-api/internal/logger"
	"github.com/Brownie44l1/sehatin-api/internal/model"
	"github.com/Brownie44l1/sehatin-api/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.Logging)
	defer log.Sync()

	if err := model.InitRuntime(cfg.Models.ONNXLibrary); err != nil {
		log.Fatal("failed to initialize model runtime", zap.Error(err))
	}
	defer model.ShutdownRuntime()

	loader := pipeline.NewLoader(cfg.Models, pipeline.ONNXScorers, log)
	bundle, err := loader.Load()
	if err != nil {
		log.Fatal("failed to load model bundle", zap.Error(err))
	}
	registry := pipeline.NewRegistry(bundle, log)
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Models.Watch {
		watcher, err := pipeline.NewWatcher(loader, registry, cfg.Models.ReloadDebounce, log)
		if err != nil {
			log.Fatal("failed to watch model artifacts", zap.Error(err))
		}
		go watcher.Run(ctx)
		log.Info("watching model artifacts for changes", zap.Strings("files", loader.Paths()))
	}

	handler := handlers.NewHandler(pipeline.NewService(registry), cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handlers.Routes(handler, log, handlers.RouteOptions{
			CORSOrigin: cfg.Server.CORSOrigin,
			Metrics:    cfg.Metrics.Enabled,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("server starting",
		zap.String("port", cfg.Server.Port),
		zap.Strings("endpoints", []string{
			"GET / - BMI form",
			"GET /health - Health check",
			"POST /calculate_bmi - BMI and daily step recommendation",
			"POST /predict - Recognise a character from an image upload",
		}),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
