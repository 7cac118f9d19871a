package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/handler"
	"github.com/wadjakorntonsri/editor-cms/pkg/app"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/logging"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, the sqlite file is ephemeral unless DATABASE_URL points at Turso
	a, err := app.New(cfg, logger)
	if err != nil {
		panic(err)
	}

	mux = handler.NewRouter(cfg, a.Services, logger)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
