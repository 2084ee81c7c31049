package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/jwtmiddleware"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	authmw "github.com/Skotchmaster/blog_backend/internal/middleware/auth"
	"github.com/Skotchmaster/blog_backend/internal/transport"
)

type AuthHTTP struct {
	Authority *auth.Authority
	Cookies   Cookies
	// Headers reports whether tokens are returned in the response body for Authorization headers.
	Headers bool
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, pair *auth.TokenPair) {
	if !h.Cookies.Enabled {
		return
	}
	if pair.AccessToken != "" {
		c.SetCookie(h.Cookies.CreateCookie(authmw.AccessCookie, pair.AccessToken, "/", pair.AccessExpiresAt))
	}
	if pair.RefreshToken != "" {
		c.SetCookie(h.Cookies.CreateCookie(authmw.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExpiresAt))
	}
}

func (h *AuthHTTP) unsetTokenCookies(c echo.Context) {
	if !h.Cookies.Enabled {
		return
	}
	c.SetCookie(h.Cookies.DeleteCookie(authmw.AccessCookie, "/"))
	c.SetCookie(h.Cookies.DeleteCookie(authmw.RefreshCookie, "/"))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindValid(c, l, "login_error", &req); err != nil {
		return err
	}

	pair, err := h.Authority.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	if !h.Headers {
		return c.JSON(http.StatusOK, transport.DetailResponse{Detail: "Successfully login"})
	}
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh runs behind the refresh guard.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	pair, err := h.Authority.Refresh(ctx, jwtmiddleware.RawToken(c))
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	if !h.Headers {
		return c.JSON(http.StatusOK, transport.DetailResponse{Detail: "The token has been refreshed"})
	}
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// LogOut revokes the presented access token and the refresh cookie, when one is sent.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()

	var refresh string
	if ck, err := c.Cookie(authmw.RefreshCookie); err == nil {
		refresh = ck.Value
	}

	if err := h.Authority.Logout(ctx, jwtmiddleware.RawToken(c), refresh); err != nil {
		return err
	}

	h.unsetTokenCookies(c)
	return c.JSON(http.StatusOK, transport.DetailResponse{Detail: "Successfully logout"})
}

func (h *AuthHTTP) RevokeAccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_access_revoke")

	p := jwtmiddleware.Principal(c)
	if err := h.Authority.RevokePrincipal(ctx, p); err != nil {
		l.Error("access_revoke_failed", "status", 503, "error", err)
		return err
	}
	if h.Cookies.Enabled {
		c.SetCookie(h.Cookies.DeleteCookie(authmw.AccessCookie, "/"))
	}

	l.Info("access_revoke_successful", "user_id", p.UserID)
	return c.JSON(http.StatusOK, transport.DetailResponse{Detail: "Access token has been revoked"})
}

func (h *AuthHTTP) RevokeRefresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh_revoke")

	p := jwtmiddleware.Principal(c)
	if err := h.Authority.RevokePrincipal(ctx, p); err != nil {
		l.Error("refresh_revoke_failed", "status", 503, "error", err)
		return err
	}
	if h.Cookies.Enabled {
		c.SetCookie(h.Cookies.DeleteCookie(authmw.RefreshCookie, "/"))
	}

	l.Info("refresh_revoke_successful", "user_id", p.UserID)
	return c.JSON(http.StatusOK, transport.DetailResponse{Detail: "Refresh token has been revoked"})
}
