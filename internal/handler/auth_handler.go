package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/middleware"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	oauthSessionName   = "oauth_state"
	oauthStateKey      = "state"
	oauthStateMaxAge   = 300
	googleFailedReason = "Google authentication failed"
)

// AuthHandlerConfig holds cookie and redirect settings
type AuthHandlerConfig struct {
	// ClientURL is where the OAuth callback sends the browser
	ClientURL string
	// SecureCookies marks cookies Secure and SameSite=Strict
	SecureCookies bool
	// TokenTTL bounds the session cookie lifetime
	TokenTTL time.Duration
	// SessionSecret signs the OAuth state cookie
	SessionSecret string
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService  service.AuthService
	oauthService service.OAuthService
	store        sessions.Store
	config       *AuthHandlerConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, oauthService service.OAuthService, config *AuthHandlerConfig) *AuthHandler {
	if config.TokenTTL == 0 {
		config.TokenTTL = 30 * 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/api/auth",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		store:        store,
		config:       config,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.register")
	defer span.End()

	var req dto.RegisterRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, invalidBodyMessage)
		return
	}

	account, token, err := h.authService.Register(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "auth.register", err)
		return
	}

	h.setTokenCookie(c, token)
	response.Created(c, dto.ToAuthResponse(account), "")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.login")
	defer span.End()

	var req dto.LoginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, invalidBodyMessage)
		return
	}

	account, token, err := h.authService.Login(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "auth.login", err)
		return
	}

	h.setTokenCookie(c, token)
	response.Success(c, dto.ToAuthResponse(account))
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this
// only clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearTokenCookie(c)
	response.Message(c, "Logged out successfully")
}

// Me handles GET /api/auth/me behind Authenticate
func (h *AuthHandler) Me(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		response.Unauthorized(c, "Not authorized, no user found")
		return
	}
	response.Success(c, dto.ToAccountResponse(account))
}

// GoogleLogin handles GET /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.oauthService.Enabled() {
		response.Error(c, http.StatusServiceUnavailable, "Google authentication is not configured")
		return
	}

	state, err := newOAuthState()
	if err != nil {
		serverError(c.Request.Context(), c, "auth.google", err)
		return
	}

	// a stale or tampered cookie still yields a fresh session
	session, _ := h.store.New(c.Request, oauthSessionName)
	session.Values[oauthStateKey] = state
	if err := session.Save(c.Request, c.Writer); err != nil {
		serverError(c.Request.Context(), c, "auth.google", err)
		return
	}

	authURL, err := h.oauthService.AuthURL(state)
	if err != nil {
		serverError(c.Request.Context(), c, "auth.google", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback handles GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.google_callback")
	defer span.End()

	if err := h.consumeState(c); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.redirectFailure(c, err)
		return
	}

	if reason := c.Query("error"); reason != "" {
		h.redirectFailure(c, errors.New("provider returned "+reason))
		return
	}

	_, token, err := h.oauthService.HandleCallback(ctx, c.Query("code"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.redirectFailure(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.config.ClientURL+"/auth-success?token="+url.QueryEscape(token))
}

// consumeState checks the callback state against the cookie and clears it
func (h *AuthHandler) consumeState(c *gin.Context) error {
	session, err := h.store.Get(c.Request, oauthSessionName)
	if err != nil {
		return domain.ErrInvalidOAuthState
	}

	expected, _ := session.Values[oauthStateKey].(string)
	session.Options.MaxAge = -1
	_ = session.Save(c.Request, c.Writer)

	if expected == "" || expected != c.Query("state") {
		return domain.ErrInvalidOAuthState
	}
	return nil
}

func (h *AuthHandler) redirectFailure(c *gin.Context, err error) {
	logger.Get().WithContext(c.Request.Context()).Warn("Google login failed", zap.Error(err))
	c.Redirect(http.StatusFound, h.config.ClientURL+"/login?error="+url.QueryEscape(googleFailedReason))
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, h.tokenCookie(token, int(h.config.TokenTTL.Seconds())))
}

func (h *AuthHandler) clearTokenCookie(c *gin.Context) {
	http.SetCookie(c.Writer, h.tokenCookie("", -1))
}

func (h *AuthHandler) tokenCookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.config.SecureCookies {
		sameSite = http.SameSiteStrictMode
	}
	return &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: sameSite,
	}
}

func (h *AuthHandler) handleError(c *gin.Context, op string, err error) {
	switch {
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrAccountExists):
		response.Conflict(c, "User already exists")
	case domain.IsAuthError(err):
		response.Unauthorized(c, "Invalid credentials")
	default:
		serverError(c.Request.Context(), c, op, err)
	}
}

func newOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
