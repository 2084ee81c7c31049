package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTHJWT_SECRET_KEY", "secret")
	t.Setenv("AUTHJWT_ACCESS_TOKEN_EXPIRES", "")
	t.Setenv("AUTHJWT_REFRESH_TOKEN_EXPIRES", "")
	t.Setenv("AUTHJWT_TOKEN_LOCATION", "")
	t.Setenv("AUTHJWT_REFRESH_ROTATION", "")
	t.Setenv("REVOCATION_FAIL_OPEN", "")
	t.Setenv("RESERVED_USERNAMES", "")

	cfg := Load()

	assert.Equal(t, []byte("secret"), cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.HasLocation("headers"))
	assert.True(t, cfg.HasLocation("cookies"))
	assert.False(t, cfg.RefreshRotation)
	assert.False(t, cfg.RevocationFailOpen)
	assert.Equal(t, []string{"me"}, cfg.ReservedUsernames)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTHJWT_ACCESS_TOKEN_EXPIRES", "60")
	t.Setenv("AUTHJWT_LEEWAY", "5")
	t.Setenv("AUTHJWT_TOKEN_LOCATION", "cookies")
	t.Setenv("AUTHJWT_COOKIE_SAMESITE", "strict")
	t.Setenv("AUTHJWT_REFRESH_ROTATION", "true")
	t.Setenv("REVOCATION_FAIL_OPEN", "1")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := Load()

	assert.Equal(t, time.Minute, cfg.AccessTTL)
	assert.Equal(t, 5*time.Second, cfg.Leeway)
	assert.False(t, cfg.HasLocation("headers"))
	assert.True(t, cfg.HasLocation("COOKIES"))
	assert.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	assert.True(t, cfg.RefreshRotation)
	assert.True(t, cfg.RevocationFailOpen)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestSeconds_InvalidFallsBack(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want time.Duration
	}{
		{name: "empty", val: "", want: time.Hour},
		{name: "garbage", val: "abc", want: time.Hour},
		{name: "negative", val: "-3", want: time.Hour},
		{name: "valid", val: "120", want: 2 * time.Minute},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SECONDS_KEY", tt.val)
			assert.Equal(t, tt.want, Seconds("TEST_SECONDS_KEY", time.Hour))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok := Config{
		DatabaseURL:    "sqlite::memory:",
		JWTSecret:      []byte("secret"),
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		TokenLocations: []string{"headers", "Cookies"},
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.DatabaseURL = ""
	bad.JWTSecret = nil
	bad.TokenLocations = []string{"headers", "query"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "AUTHJWT_SECRET_KEY")
	assert.Contains(t, err.Error(), `"query"`)
}
