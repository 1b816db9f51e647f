package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hearhere-auth/internal/auth/login"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type OAuthClient struct {
	ClientID     string
	ClientSecret string `validate:"required_with=ClientID"`
	RedirectURL  string `validate:"required_with=ClientID"`
}

// Enabled reports whether the provider was configured.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != ""
}

// Redirects holds the four post-login destination templates. Each template
// takes userId, url-encoded name, access token and refresh token, in that
// order, as %s verbs.
type Redirects struct {
	BasicLocal string `validate:"required"`
	BasicProd  string `validate:"required"`
	SaveLocal  string `validate:"required"`
	SaveProd   string `validate:"required"`
}

type Config struct {
	AppPort   string `validate:"required"`
	LogLevel  string `validate:"oneof=trace debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	DatabaseDriver string `validate:"oneof=postgres sqlite"`
	DatabaseDSN    string `validate:"required"`

	RedisAddr     string `validate:"required"`
	RedisPassword string

	// RefreshStore selects where refresh tokens live: "database" or "redis".
	RefreshStore string `validate:"oneof=database redis"`

	JWTSecret       string        `validate:"required,min=32"`
	JWTIssuer       string
	AccessTokenTTL  time.Duration `validate:"gt=0"`
	RefreshTokenTTL time.Duration `validate:"gtfield=AccessTokenTTL"`

	CookieSecure    bool
	LoginSessionTTL time.Duration `validate:"gt=0"`

	Google OAuthClient
	Kakao  OAuthClient
	Naver  OAuthClient

	Redirects Redirects
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("database_driver", "postgres")
	v.SetDefault("refresh_store", "database")
	v.SetDefault("jwt_access_ttl", "30m")
	v.SetDefault("jwt_refresh_ttl", "336h")
	v.SetDefault("cookie_secure", true)
	v.SetDefault("login_session_ttl", "10m")
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory, and validates it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := Config{
		AppPort:   v.GetString("app_port"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),

		DatabaseDriver: v.GetString("database_driver"),
		DatabaseDSN:    v.GetString("database_dsn"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),

		RefreshStore: v.GetString("refresh_store"),

		JWTSecret:       v.GetString("jwt_secret"),
		JWTIssuer:       v.GetString("jwt_issuer"),
		AccessTokenTTL:  v.GetDuration("jwt_access_ttl"),
		RefreshTokenTTL: v.GetDuration("jwt_refresh_ttl"),

		CookieSecure:    v.GetBool("cookie_secure"),
		LoginSessionTTL: v.GetDuration("login_session_ttl"),

		Google: oauthClient(v, "google"),
		Kakao:  oauthClient(v, "kakao"),
		Naver:  oauthClient(v, "naver"),

		Redirects: Redirects{
			BasicLocal: v.GetString("redirect_basic_local"),
			BasicProd:  v.GetString("redirect_basic_prod"),
			SaveLocal:  v.GetString("redirect_save_local"),
			SaveProd:   v.GetString("redirect_save_prod"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func oauthClient(v *viper.Viper, name string) OAuthClient {
	return OAuthClient{
		ClientID:     v.GetString(name + "_client_id"),
		ClientSecret: v.GetString(name + "_client_secret"),
		RedirectURL:  v.GetString(name + "_redirect_url"),
	}
}

// Validate checks field constraints and that every redirect template has
// exactly four %s slots and no other verbs.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	templates := map[string]string{
		"REDIRECT_BASIC_LOCAL": c.Redirects.BasicLocal,
		"REDIRECT_BASIC_PROD":  c.Redirects.BasicProd,
		"REDIRECT_SAVE_LOCAL":  c.Redirects.SaveLocal,
		"REDIRECT_SAVE_PROD":   c.Redirects.SaveProd,
	}
	for key, tmpl := range templates {
		if err := login.CheckTemplate(tmpl); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
	}

	if !c.Google.Enabled() && !c.Kakao.Enabled() && !c.Naver.Enabled() {
		return errors.New("config: at least one oauth provider must be configured")
	}
	return nil
}
