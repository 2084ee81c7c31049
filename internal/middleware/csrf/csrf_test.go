package csrf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

func serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	h := Middleware(Config{SkipPaths: []string{"/auth/login"}})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	return rec, h(echo.New().NewContext(req, rec))
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultConfig().CookieName {
			return c
		}
	}
	require.FailNow(t, "csrf cookie not set")
	return nil
}

func TestMiddleware_SafeMethodIssuesToken(t *testing.T) {
	t.Parallel()

	rec, err := serve(t, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.NoError(t, err)
	c := csrfCookie(t, rec)
	assert.NotEmpty(t, c.Value)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, c.Value, rec.Header().Get("X-CSRF-Token"))
}

func TestMiddleware_UnsafeMethod(t *testing.T) {
	t.Parallel()

	newReq := func(token string) *http.Request {
		req := httptest.NewRequest(http.MethodDelete, "http://example.com/auth/logout", strings.NewReader(""))
		req.Header.Set("Origin", "http://example.com")
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "abc"})
		if token != "" {
			req.Header.Set("X-CSRF-Token", token)
		}
		return req
	}

	_, err := serve(t, newReq(""))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = serve(t, newReq("abd"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = serve(t, newReq("abc"))
	assert.NoError(t, err)

	foreign := newReq("abc")
	foreign.Header.Set("Origin", "http://evil.example")
	_, err = serve(t, foreign)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestMiddleware_Skips(t *testing.T) {
	t.Parallel()

	bearer := httptest.NewRequest(http.MethodDelete, "/auth/logout", nil)
	bearer.Header.Set(echo.HeaderAuthorization, "Bearer token")
	_, err := serve(t, bearer)
	assert.NoError(t, err)

	_, err = serve(t, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.NoError(t, err)
}
