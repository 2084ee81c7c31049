package authmw

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/jwtmiddleware"
)

const (
	AccessCookie  = "access_token_cookie"
	RefreshCookie = "refresh_token_cookie"
)

// Guards holds the route middlewares that resolve the caller from a token.
type Guards struct {
	Gate      *auth.Gate
	Locations []string
}

// RequireLogin admits requests carrying a valid, unrevoked access token.
func (g *Guards) RequireLogin() echo.MiddlewareFunc {
	return jwtmiddleware.JWTMiddleware(jwtmiddleware.Config{
		TokenLookup:   jwtmiddleware.Lookup(g.Locations, AccessCookie),
		Verify:        g.Gate.RequireAccess,
		MissingDetail: "Missing access token",
	})
}

// RequireRefresh admits requests carrying a valid, unrevoked refresh token.
func (g *Guards) RequireRefresh() echo.MiddlewareFunc {
	return jwtmiddleware.JWTMiddleware(jwtmiddleware.Config{
		TokenLookup:   jwtmiddleware.Lookup(g.Locations, RefreshCookie),
		Verify:        g.Gate.RequireRefresh,
		MissingDetail: "Missing refresh token",
	})
}
