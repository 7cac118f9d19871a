package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/services"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

type stubColumns struct {
	ports.ColumnService
	addErr error
	got    []domain.LinkRecord
}

func (s *stubColumns) AddLinks(_ context.Context, id string, links []domain.LinkRecord) (*domain.AppendResult, error) {
	s.got = links
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.AppendResult{Column: &domain.Column{DocumentID: id, Links: links}, Added: links, Alias: id}, nil
}

func (s *stubColumns) GetColumn(_ context.Context, id string) (*domain.Column, error) {
	if id == "missing" {
		return nil, &domain.NotFoundError{Collection: "columns", ID: id}
	}
	return &domain.Column{DocumentID: id, Title: "Weekly"}, nil
}

func (s *stubColumns) UpdateColumn(_ context.Context, id string, form domain.ColumnForm) (*domain.Column, error) {
	s.got = form.Links
	return &domain.Column{DocumentID: id, Title: form.Title, Slug: form.Slug, Links: form.Links}, nil
}

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, identifier, password string) (*domain.Session, error) {
	if password != "pw" {
		return nil, &domain.TransportError{Status: http.StatusUnauthorized, Message: "Invalid identifier or password"}
	}
	return &domain.Session{
		Token:     "cms-jwt",
		User:      map[string]any{"email": identifier},
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (stubAuth) Me(context.Context) (map[string]any, error) {
	return map[string]any{"username": "ed"}, nil
}

type stubCalendar struct{}

func (stubCalendar) Month(_ context.Context, year int, month time.Month) ([]domain.CalendarDay, error) {
	if month > 12 {
		return nil, &domain.ValidationError{Reason: "month out of range"}
	}
	return []domain.CalendarDay{{Date: fmt.Sprintf("%d-%02d-01", year, month)}}, nil
}

var testCfg = &config.Config{JWTSecret: "test-secret", FrontendURL: "http://editor.local"}

func newTestRouter(cols *stubColumns) http.Handler {
	return NewRouter(testCfg, Services{
		Auth:     stubAuth{},
		Columns:  cols,
		Composer: services.NewComposer(cols),
		Entries:  map[string]ports.EntryService{},
		Calendar: stubCalendar{},
	}, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: generateTestToken(t, testCfg.JWTSecret, "cms")})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Reason: "no links to add"}, http.StatusBadRequest},
		{&domain.ConflictError{Count: 2}, http.StatusConflict},
		{&domain.NotFoundError{ID: "x"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrNoValidIdentifier), http.StatusNotFound},
		{&domain.TransportError{Status: 500}, http.StatusBadGateway},
		{&domain.TransportError{Status: 401}, http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, httptest.NewRequest("GET", "/", nil), tt.err)
			assert.Equal(t, tt.want, rr.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestAddLinksEndpoint(t *testing.T) {
	cols := &stubColumns{}
	h := newTestRouter(cols)

	rr := do(t, h, "POST", "/api/v1/columns/doc-1/links", `{"links":[{"label":"A","url":"https://a"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://a", cols.got[0].URL)

	cols.addErr = &domain.ConflictError{Count: 1, Reason: "url already present"}
	rr = do(t, h, "POST", "/api/v1/columns/doc-1/links", `{"links":[{"label":"A","url":"https://a"}]}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, "POST", "/api/v1/columns/doc-1/links", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddLinksAcceptsBlankFormFields(t *testing.T) {
	cols := &stubColumns{}
	h := newTestRouter(cols)

	rr := do(t, h, "POST", "/api/v1/columns/doc-1/links",
		`{"links":[{"label":"A","url":"https://a","description":"","publishDate":""},{"label":"B","url":"https://b","publishDate":"2025-03-01T09:30"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, cols.got, 2)
	assert.Nil(t, cols.got[0].PublishDate)
	assert.Nil(t, cols.got[0].Description)
	require.NotNil(t, cols.got[1].PublishDate)
	assert.Equal(t, 9, cols.got[1].PublishDate.Hour())

	rr = do(t, h, "POST", "/api/v1/columns/doc-1/links", `{"links":[{"label":"A","url":"https://a","publishDate":"soon"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "PUT", "/api/v1/columns/doc-1",
		`{"title":"Weekly","slug":"weekly","links":[{"label":"A","url":"https://a","description":"","publishDate":""}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, cols.got, 1)
	assert.Nil(t, cols.got[0].PublishDate)
}

func TestGetColumnNotFound(t *testing.T) {
	h := newTestRouter(&stubColumns{})
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/v1/columns/missing", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/api/v1/columns/doc-1/links", "").Code)
}

func TestCreateColumnValidatesForm(t *testing.T) {
	h := newTestRouter(&stubColumns{})
	rr := do(t, h, "POST", "/api/v1/columns", `{"title":"No slug"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPendingFlow(t *testing.T) {
	cols := &stubColumns{}
	h := newTestRouter(cols)

	rr := do(t, h, "POST", "/api/v1/columns/doc-1/pending", `{"label":"A","url":"https://a"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = do(t, h, "POST", "/api/v1/columns/doc-1/pending", `{"label":"B","url":"https://b"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", "/api/v1/columns/doc-1/pending/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "DELETE", "/api/v1/columns/doc-1/pending/9", "").Code)

	cols.addErr = &domain.TransportError{Status: 500, Message: "down"}
	assert.Equal(t, http.StatusBadGateway, do(t, h, "POST", "/api/v1/columns/doc-1/pending/submit", "").Code)

	var pending struct {
		Data []domain.LinkRecord `json:"data"`
	}
	rr = do(t, h, "GET", "/api/v1/columns/doc-1/pending", "")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&pending))
	assert.Len(t, pending.Data, 1)

	cols.addErr = nil
	assert.Equal(t, http.StatusOK, do(t, h, "POST", "/api/v1/columns/doc-1/pending/submit", "").Code)

	var log struct {
		Data []domain.LinkRecord `json:"data"`
	}
	rr = do(t, h, "GET", "/api/v1/columns/doc-1/session", "")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&log))
	require.Len(t, log.Data, 1)
	assert.Equal(t, "https://a", log.Data[0].URL)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newTestRouter(&stubColumns{})

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"identifier":"ed@example.com","password":"pw"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, rr.Body.String(), "cms-jwt")

	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"identifier":"ed@example.com","password":"nope"}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"identifier":"ed@example.com"}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEntriesUnknownKind(t *testing.T) {
	h := newTestRouter(&stubColumns{})
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/v1/entries/podcasts", "").Code)
}

func TestCalendarEndpoint(t *testing.T) {
	h := newTestRouter(&stubColumns{})

	rr := do(t, h, "GET", "/api/v1/calendar?year=2025&month=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "2025-03-01")

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/calendar?month=13", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/calendar?year=abc", "").Code)
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(&stubColumns{})
	for _, path := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
