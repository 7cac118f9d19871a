package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/config"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

type AuthHandler struct {
	auth         ports.Authenticator
	jwtSecret    []byte
	frontendURL  string
	isProduction bool
	logger       *zap.Logger
}

func NewAuthHandler(cfg *config.Config, auth ports.Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		auth:         auth,
		jwtSecret:    []byte(cfg.JWTSecret),
		frontendURL:  cfg.FrontendURL,
		isProduction: cfg.AppEnv == "production",
		logger:       logger,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login checks the credentials against the CMS and stores the resulting
// token in a signed session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Warn("login failed", zap.String("identifier", req.Identifier), zap.Error(err))
		writeError(w, r, err)
		return
	}

	subject := req.Identifier
	if v, ok := session.User["email"].(string); ok && v != "" {
		subject = v
	}
	claims := &sessionClaims{
		CMSToken: session.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		writeError(w, r, fmt.Errorf("sign session: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tokenString,
		Expires:  session.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login successful", zap.String("user", subject))
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

// Me returns the CMS profile of the logged-in editor.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.auth.Me(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}
