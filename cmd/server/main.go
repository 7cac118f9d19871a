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

	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/handler"
	"github.com/wadjakorntonsri/editor-cms/pkg/app"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	// Initialize Router
	mux := handler.NewRouter(cfg, a.Services, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("strapi_url", cfg.StrapiURL))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
