package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://localhost/hearhere")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GOOGLE_CLIENT_ID", "google-client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth/callback/google")
	t.Setenv("REDIRECT_BASIC_LOCAL", "http://localhost:3000/login?id=%s&name=%s&access=%s&refresh=%s")
	t.Setenv("REDIRECT_BASIC_PROD", "https://hearhere.app/login?id=%s&name=%s&access=%s&refresh=%s")
	t.Setenv("REDIRECT_SAVE_LOCAL", "http://localhost:3000/save?id=%s&name=%s&access=%s&refresh=%s")
	t.Setenv("REDIRECT_SAVE_PROD", "https://hearhere.app/save?id=%s&name=%s&access=%s&refresh=%s")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "database", cfg.RefreshStore)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.LoginSessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.Google.Enabled())
	assert.False(t, cfg.Kakao.Enabled())
	assert.Equal(t, "https://hearhere.app/save?id=%s&name=%s&access=%s&refresh=%s", cfg.Redirects.SaveProd)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("REFRESH_STORE", "redis")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("JWT_REFRESH_TTL", "24h")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "redis", cfg.RefreshStore)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"short secret", "JWT_SECRET", "too-short"},
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"unknown refresh store", "REFRESH_STORE", "memcached"},
		{"refresh not longer than access", "JWT_REFRESH_TTL", "1m"},
		{"template missing slot", "REDIRECT_SAVE_PROD", "https://hearhere.app/save?id=%s&name=%s&access=%s"},
		{"template with extra slot", "REDIRECT_BASIC_LOCAL", "http://localhost/%s/%s/%s/%s/%s"},
		{"percent-encoded sequence", "REDIRECT_BASIC_PROD", "https://hearhere.app/cb?next=%2Fhome&id=%s&name=%s&access=%s&refresh=%s"},
		{"non-string verb", "REDIRECT_SAVE_LOCAL", "http://localhost:3000/save?id=%d&name=%s&access=%s&refresh=%s&x=%s"},
		{"trailing percent", "REDIRECT_SAVE_LOCAL", "http://localhost:3000/save?id=%s&name=%s&access=%s&refresh=%s%"},
		{"provider secret missing", "GOOGLE_CLIENT_SECRET", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadAcceptsEscapedPercent(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIRECT_BASIC_PROD", "https://hearhere.app/cb?next=%%2Fhome&id=%s&name=%s&access=%s&refresh=%s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.Redirects.BasicProd, "%%2F")
}

func TestLoadRequiresAProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_CLIENT_ID", "")

	_, err := Load()
	require.ErrorContains(t, err, "at least one oauth provider")
}
