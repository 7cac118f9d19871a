package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// Services are the application services the router exposes.
type Services struct {
	Auth      ports.Authenticator
	Columns   ports.ColumnService
	Composer  ports.LinkComposer
	Entries   map[string]ports.EntryService
	Calendar  ports.CalendarService
	Tutorials ports.TutorialService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	SetErrorLogger(logger)

	// Initialize Handlers
	ch := NewColumnHandler(svc.Columns, svc.Composer)
	eh := NewEntryHandler(svc.Entries)
	calh := NewCalendarHandler(svc.Calendar)
	th := NewTutorialHandler(svc.Tutorials)
	authHandler := NewAuthHandler(cfg, svc.Auth, logger)

	// Initialize Middleware
	mw := NewMiddleware(cfg, logger)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Protected Routes
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /api/v1/me", authHandler.Me)

	// Column Routes
	protectedMux.HandleFunc("GET /api/v1/columns", ch.ListColumns)
	protectedMux.HandleFunc("POST /api/v1/columns", ch.CreateColumn)
	protectedMux.HandleFunc("GET /api/v1/columns/{id}", ch.GetColumn)
	protectedMux.HandleFunc("PUT /api/v1/columns/{id}", ch.UpdateColumn)
	protectedMux.HandleFunc("GET /api/v1/columns/{id}/links", ch.GetLinks)
	protectedMux.HandleFunc("POST /api/v1/columns/{id}/links", ch.AddLinks)
	protectedMux.HandleFunc("GET /api/v1/columns/{id}/pending", ch.ListPending)
	protectedMux.HandleFunc("POST /api/v1/columns/{id}/pending", ch.AddPending)
	protectedMux.HandleFunc("POST /api/v1/columns/{id}/pending/submit", ch.SubmitPending)
	protectedMux.HandleFunc("PUT /api/v1/columns/{id}/pending/{index}", ch.UpdatePending)
	protectedMux.HandleFunc("DELETE /api/v1/columns/{id}/pending/{index}", ch.RemovePending)
	protectedMux.HandleFunc("GET /api/v1/columns/{id}/session", ch.SessionLog)

	// Entry Routes
	protectedMux.HandleFunc("GET /api/v1/entries/{kind}", eh.List)
	protectedMux.HandleFunc("POST /api/v1/entries/{kind}", eh.Create)
	protectedMux.HandleFunc("GET /api/v1/entries/{kind}/{id}", eh.Get)
	protectedMux.HandleFunc("PUT /api/v1/entries/{kind}/{id}", eh.Update)
	protectedMux.HandleFunc("DELETE /api/v1/entries/{kind}/{id}", eh.Delete)

	protectedMux.HandleFunc("GET /api/v1/calendar", calh.Month)

	protectedMux.HandleFunc("GET /api/v1/tutorials", th.List)
	protectedMux.HandleFunc("GET /api/v1/tutorials/{feature}", th.Get)
	protectedMux.HandleFunc("POST /api/v1/tutorials/{feature}", th.Complete)
	protectedMux.HandleFunc("DELETE /api/v1/tutorials/{feature}", th.Reset)

	// Apply Middleware to Protected Routes
	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	return mw.RequestLogger(mux)
}
