// Package app wires configuration, adapters and services together for the
// server, the serverless entrypoint and the CLI.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/cache"
	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/handler"
	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/strapi"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/reconcile"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/services"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// App holds the constructed services. Close releases the local database.
type App struct {
	Services handler.Services
	Columns  *services.ColumnService
	CMS      *strapi.Client

	repo *sqlite.SQLiteRepository
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cms := strapi.NewClient(cfg.StrapiURL, cfg.StrapiAPIToken, logger.Named("strapi"))
	engine := reconcile.NewEngine(reconcile.Policy{
		Ratio:       cfg.Reconcile.Ratio,
		MinExisting: cfg.Reconcile.MinExisting,
	}, logger.Named("reconcile"))

	columns := services.NewColumnService(cms, cache.NewAliasCache(cfg.CacheTTL), engine, cfg.Endpoints.Columns,
		services.ColumnOptions{
			LockWait:    cfg.Append.LockWait,
			SettleDelay: cfg.Append.SettleDelay,
		}, logger.Named("columns"))

	entries := make(map[string]ports.EntryService)
	for _, kind := range []string{"articles", "events", "video-episodes"} {
		collection, _ := cfg.Endpoints.Collection(kind)
		entries[kind] = services.NewEntryService(cms, collection, logger.Named("entries"))
	}

	return &App{
		Services: handler.Services{
			Auth:      cms,
			Columns:   columns,
			Composer:  services.NewComposer(columns),
			Entries:   entries,
			Calendar:  services.NewCalendarService(cms, cfg.Endpoints.Articles, cfg.Endpoints.Columns, nil, logger.Named("calendar")),
			Tutorials: services.NewTutorialService(repo),
		},
		Columns: columns,
		CMS:     cms,
		repo:    repo,
	}, nil
}

func (a *App) Close() error {
	return a.repo.Close()
}
