package app

import (
	"context"
	"fmt"
	"net/http"

	"hearhere-auth/internal/auth/handler"
	"hearhere-auth/internal/auth/login"
	"hearhere-auth/internal/auth/principal"
	"hearhere-auth/internal/auth/provider"
	"hearhere-auth/internal/auth/provider/openid"
	"hearhere-auth/internal/auth/provider/userinfo"
	"hearhere-auth/internal/auth/refresh"
	"hearhere-auth/internal/auth/token"
	"hearhere-auth/internal/config"
	"hearhere-auth/internal/logger"
	"hearhere-auth/internal/middleware"
	"hearhere-auth/internal/session"
	"hearhere-auth/internal/user"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := buildRouter(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return router, infra.Close, nil
}

func buildRouter(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	providers, err := setupProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	registry := provider.NewRegistry(providers...)

	resolver := principal.NewResolver()
	for _, name := range registry.Names() {
		if !resolver.Supports(name) {
			return nil, fmt.Errorf("provider %q has no principal extractor", name)
		}
	}

	issuerOpts := []token.Option{}
	if cfg.JWTIssuer != "" {
		issuerOpts = append(issuerOpts, token.WithIssuer(cfg.JWTIssuer))
	}
	tokens, err := token.NewIssuer(cfg.JWTSecret, issuerOpts...)
	if err != nil {
		return nil, err
	}

	var refreshStore refresh.Store
	switch cfg.RefreshStore {
	case "redis":
		refreshStore = refresh.NewRedisStore(infra.Redis.Client)
	default:
		refreshStore = refresh.NewSQLStore(infra.DB)
	}

	users := user.NewSQLDirectory(infra.DB)

	loginService := login.NewService(resolver, users, refreshStore, tokens, login.Config{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Redirects: login.NewRedirects(
			cfg.Redirects.BasicLocal,
			cfg.Redirects.BasicProd,
			cfg.Redirects.SaveLocal,
			cfg.Redirects.SaveProd,
		),
	})

	authHandler := handler.NewHandler(
		registry,
		session.NewRedisStore(infra.Redis.Client),
		loginService,
		users,
		handler.Options{
			Cookie:     session.CookieOptions{Secure: cfg.CookieSecure},
			SessionTTL: cfg.LoginSessionTTL,
		},
	)

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(router, middleware.GinRequireAuth(authMiddleware))

	logger.Info("oauth providers enabled", map[string]any{
		"providers":     registry.Names(),
		"refresh_store": cfg.RefreshStore,
	})

	return router, nil
}

func setupProviders(ctx context.Context, cfg config.Config) ([]provider.OAuthProvider, error) {
	var out []provider.OAuthProvider

	if cfg.Google.Enabled() {
		p, err := openid.New(ctx, openid.Config{
			Name:         principal.ProviderGoogle,
			Issuer:       openid.GoogleIssuer,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if cfg.Kakao.Enabled() {
		p, err := userinfo.Kakao(cfg.Kakao.ClientID, cfg.Kakao.ClientSecret, cfg.Kakao.RedirectURL)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if cfg.Naver.Enabled() {
		p, err := userinfo.Naver(cfg.Naver.ClientID, cfg.Naver.ClientSecret, cfg.Naver.RedirectURL)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, nil
}
