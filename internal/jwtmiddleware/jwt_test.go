package jwtmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/auth"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		locations []string
		want      string
	}{
		{name: "both", locations: []string{"headers", "cookies"}, want: "header:Authorization:Bearer ,cookie:c"},
		{name: "cookies only", locations: []string{"Cookies"}, want: "cookie:c"},
		{name: "none falls back to header", locations: nil, want: "header:Authorization:Bearer "},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Lookup(tt.locations, "c"))
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	t.Parallel()

	want := &auth.Principal{UserID: uuid.New(), Username: "Alex"}
	mw := JWTMiddleware(Config{
		TokenLookup: Lookup([]string{"headers", "cookies"}, "access_token_cookie"),
		Verify: func(_ context.Context, token string) (*auth.Principal, error) {
			if token == "good" {
				return want, nil
			}
			return nil, apperr.ErrTokenExpired
		},
		MissingDetail: "Missing access token",
	})

	var got *auth.Principal
	var raw string
	h := mw(func(c echo.Context) error {
		got = Principal(c)
		raw = RawToken(c)
		return c.NoContent(http.StatusOK)
	})

	run := func(setup func(r *http.Request)) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		setup(req)
		return h(echo.New().NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, run(func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer good") }))
	assert.Same(t, want, got)
	assert.Equal(t, "good", raw)

	got = nil
	require.NoError(t, run(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token_cookie", Value: "good"}) }))
	assert.Same(t, want, got)

	err := run(func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer stale") })
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)

	err = run(func(*http.Request) {})
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
	assert.Equal(t, "Missing access token", apperr.DetailOf(err))
}
