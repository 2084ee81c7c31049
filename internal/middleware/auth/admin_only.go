package authmw

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/jwtmiddleware"
	"github.com/Skotchmaster/blog_backend/internal/logging"
)

// AdminOnly must be chained after RequireLogin.
func (g *Guards) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p := jwtmiddleware.Principal(c)
		if p == nil {
			return apperr.ErrTokenInvalid
		}
		if err := g.Gate.RequireAdmin(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("admin_check_failed", "user_id", p.UserID, "reason", apperr.KindOf(err).String())
			return err
		}
		return next(c)
	}
}
