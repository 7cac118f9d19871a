package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/editor-cms/pkg/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:   "testservlet",
		FrontendURL: "http://editor.local",
	}
	mw := NewMiddleware(cfg, nil)

	tests := []struct {
		name           string
		path           string
		cookieName     string
		cookieValue    string
		expectedStatus int
	}{
		{
			name:           "No Cookie - API",
			path:           "/api/v1/columns",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Cookie - Browser",
			path:           "/dashboard",
			expectedStatus: http.StatusTemporaryRedirect,
		},
		{
			name:           "Invalid Cookie - API",
			path:           "/api/v1/columns",
			cookieName:     "auth_token",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret - API",
			path:           "/api/v1/columns",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, "other", "cms-token"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie - API",
			path:           "/api/v1/columns",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, "cms-token"),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookieName != "" {
				req.AddCookie(&http.Cookie{Name: tt.cookieName, Value: tt.cookieValue})
			}

			rr := httptest.NewRecorder()
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "editor@example.com", userFromContext(r.Context()))
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusTemporaryRedirect {
				assert.Equal(t, "http://editor.local/login", rr.Header().Get("Location"))
			}
		})
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	mw := NewMiddleware(&config.Config{}, nil)
	var seen string
	h := mw.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
}

func generateTestToken(t *testing.T, secret, cmsToken string) string {
	expirationTime := time.Now().Add(5 * time.Minute)
	claims := &sessionClaims{
		CMSToken: cmsToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "editor@example.com",
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
