package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorLogger receives the errors writeError maps to 5xx.
var errorLogger = zap.NewNop()

// SetErrorLogger replaces the logger used for server-side failures.
func SetErrorLogger(l *zap.Logger) {
	if l != nil {
		errorLogger = l
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		vse validator.ValidationErrors
		ce  *domain.ConflictError
		nf  *domain.NotFoundError
		te  *domain.TransportError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve), errors.As(err, &vse):
		status = http.StatusBadRequest
	case errors.As(err, &ce):
		status = http.StatusConflict
	case errors.As(err, &nf), errors.Is(err, domain.ErrNoValidIdentifier):
		status = http.StatusNotFound
	case errors.As(err, &te):
		status = http.StatusBadGateway
		if te.Status == http.StatusUnauthorized || te.Status == http.StatusForbidden {
			status = te.Status
		}
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		errorLogger.Error("request error",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// --- Entries ---

type EntryHandler struct {
	services map[string]ports.EntryService
}

// NewEntryHandler serves one EntryService per editorial kind, keyed by the
// {kind} path segment.
func NewEntryHandler(services map[string]ports.EntryService) *EntryHandler {
	return &EntryHandler{services: services}
}

func (h *EntryHandler) service(w http.ResponseWriter, r *http.Request) (ports.EntryService, bool) {
	svc, ok := h.services[r.PathValue("kind")]
	if !ok {
		http.Error(w, "Unknown content kind", http.StatusNotFound)
	}
	return svc, ok
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := domain.ListOptions{}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	if s := q.Get("sort"); s != "" {
		opts.Sort = strings.Split(s, ",")
	}
	if slug := q.Get("slug"); slug != "" {
		opts.Filters = map[string]string{"filters[slug][$eq]": slug}
	}

	entries, err := svc.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	e, err := svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	var in domain.EntryInput
	if !decodeAndValidate(w, r, &in) {
		return
	}
	e, err := svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	var in domain.EntryInput
	if !decodeAndValidate(w, r, &in) {
		return
	}
	e, err := svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Calendar ---

type CalendarHandler struct {
	service ports.CalendarService
	now     func() time.Time
}

func NewCalendarHandler(service ports.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: service, now: time.Now}
}

// Month defaults to the current year and month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		month = m
	}

	days, err := h.service.Month(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// --- Tutorials ---

type TutorialHandler struct {
	service ports.TutorialService
}

func NewTutorialHandler(service ports.TutorialService) *TutorialHandler {
	return &TutorialHandler{service: service}
}

func (h *TutorialHandler) List(w http.ResponseWriter, r *http.Request) {
	states, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if states == nil {
		states = []domain.TutorialState{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": states})
}

func (h *TutorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	feature := r.PathValue("feature")
	done, err := h.service.IsCompleted(r.Context(), feature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.TutorialState{Feature: feature, Completed: done})
}

func (h *TutorialHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Complete(r.Context(), r.PathValue("feature")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TutorialHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context(), r.PathValue("feature")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
