package jwtmiddleware

import (
	"context"
	"errors"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/auth"
)

const (
	PrincipalKey = "principal"
	rawTokenKey  = "raw_token"
)

// Verifier resolves a raw token into a principal. Gate.RequireAccess and Gate.RequireRefresh
// both fit.
type Verifier func(ctx context.Context, token string) (*auth.Principal, error)

type Config struct {
	// TokenLookup uses the echo-jwt lookup syntax, e.g. "header:Authorization:Bearer ,cookie:access_token_cookie".
	TokenLookup string
	Verify      Verifier
	// MissingDetail is reported when no token was found in any of the lookup locations.
	MissingDetail string
}

// Lookup builds an echo-jwt TokenLookup string for the enabled token locations.
func Lookup(locations []string, cookieName string) string {
	var parts []string
	for _, loc := range locations {
		switch strings.ToLower(loc) {
		case "headers":
			parts = append(parts, "header:"+echo.HeaderAuthorization+":Bearer ")
		case "cookies":
			parts = append(parts, "cookie:"+cookieName)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "header:"+echo.HeaderAuthorization+":Bearer ")
	}
	return strings.Join(parts, ",")
}

func JWTMiddleware(cfg Config) echo.MiddlewareFunc {
	missing := cfg.MissingDetail
	if missing == "" {
		missing = "Missing token"
	}
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  PrincipalKey,
		TokenLookup: cfg.TokenLookup,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			p, err := cfg.Verify(c.Request().Context(), raw)
			if err != nil {
				return nil, err
			}
			c.Set(rawTokenKey, raw)
			return p, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var ae *apperr.Error
			if errors.As(err, &ae) {
				return ae
			}
			return apperr.Wrap(apperr.KindTokenInvalid, missing, err)
		},
	})
}

// Principal returns the principal stored by JWTMiddleware, or nil on unguarded routes.
func Principal(c echo.Context) *auth.Principal {
	p, _ := c.Get(PrincipalKey).(*auth.Principal)
	return p
}

func RawToken(c echo.Context) string {
	s, _ := c.Get(rawTokenKey).(string)
	return s
}
