package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/adapters/strapi"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
)

const sessionCookie = "auth_token"

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

// sessionClaims is the payload of the session cookie. The CMS token is kept
// so that requests reach the CMS as the logged-in editor.
type sessionClaims struct {
	CMSToken string `json:"cms,omitempty"`
	jwt.RegisteredClaims
}

type Middleware struct {
	jwtSecret []byte
	loginURL  string
	logger    *zap.Logger
}

func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		loginURL:  strings.TrimRight(cfg.FrontendURL, "/") + "/login",
		logger:    logger,
	}
}

// AuthMiddleware verifies the session cookie and attaches the editor and
// their CMS token to the request context.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			m.deny(w, r)
			return
		}

		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			m.deny(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, claims.Subject)
		if claims.CMSToken != "" {
			ctx = strapi.WithToken(ctx, claims.CMSToken)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, m.loginURL, http.StatusTemporaryRedirect)
}

// RequestLogger tags each request with an id and logs its outcome.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			m.logger.Error("request failed", fields...)
			return
		}
		m.logger.Info("request", fields...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func userFromContext(ctx context.Context) string {
	u, _ := ctx.Value(userKey).(string)
	return u
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
