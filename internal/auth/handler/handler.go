package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"hearhere-auth/internal/auth/login"
	"hearhere-auth/internal/auth/provider"
	"hearhere-auth/internal/logger"
	"hearhere-auth/internal/session"
	"hearhere-auth/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoginService interface {
	Complete(ctx context.Context, provider string, attrs map[string]any, intent login.Intent) (*login.Result, error)
	Refresh(ctx context.Context, refreshToken string) (*login.TokenPair, error)
	Revoke(ctx context.Context, userID uuid.UUID) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Options struct {
	Cookie     session.CookieOptions
	SessionTTL time.Duration
}

type Handler struct {
	providers    *provider.Registry
	sessionStore session.Store
	logins       LoginService
	users        UserFinder
	opts         Options
}

func NewHandler(
	registry *provider.Registry,
	sessionStore session.Store,
	logins LoginService,
	users UserFinder,
	opts Options,
) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 10 * time.Minute
	}
	return &Handler{
		providers:    registry,
		sessionStore: sessionStore,
		logins:       logins,
		users:        users,
		opts:         opts,
	}
}

// RegisterRoutes mounts the OAuth and token endpoints. requireAuth guards
// the routes that need an access token.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/refresh", h.refresh)
	r.POST("/auth/logout", requireAuth, h.logout)

	api := r.Group("/api")
	api.Use(requireAuth)
	api.GET("/me", h.me)
}

// login starts an OAuth flow. The optional env and action query parameters
// select where the browser lands after the callback.
func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	intent := login.Intent{
		Env:    c.Query("env"),
		Action: c.Query("action"),
	}
	if !intent.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid env or action",
		})
		return
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	state, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	verifier, challenge := generatePKCE()

	expiresAt := time.Now().Add(h.opts.SessionTTL)
	sess := session.LoginSession{
		SessionID:    sessionID,
		Provider:     providerName,
		State:        state,
		CodeVerifier: verifier,
		Env:          intent.Env,
		Action:       intent.Action,
		ExpiresAt:    expiresAt,
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		logger.Error("failed to persist login session", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, h.opts.Cookie)
	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	// 1. Login session (one-time)
	var sess *session.LoginSession
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil {
		sess, err = h.sessionStore.Consume(c.Request.Context(), cookie.Value)
		if err != nil {
			logger.Error("failed to load login session", map[string]any{"error": err.Error()})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
			return
		}
	}
	session.ClearCookie(c.Writer, h.opts.Cookie)

	if sess == nil || sess.Provider != providerName {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "login session expired",
		})
		return
	}

	// 2. State
	if subtle.ConstantTimeCompare([]byte(c.Query("state")), []byte(sess.State)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	// 3. Provider-side error (user denied consent, etc.)
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing code",
		})
		return
	}

	// 4. Code exchange
	attrs, err := p.ExchangeCode(c.Request.Context(), code, sess.CodeVerifier)
	if err != nil {
		logger.Error("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	// 5. Login completion
	res, err := h.logins.Complete(
		c.Request.Context(),
		providerName,
		attrs,
		login.Intent{Env: sess.Env, Action: sess.Action},
	)
	if err != nil {
		respondError(c, "login failed", err, map[string]any{"provider": providerName})
		return
	}

	c.Redirect(http.StatusFound, res.RedirectURL)
}
