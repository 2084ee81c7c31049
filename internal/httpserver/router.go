package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/metrics"
	authmw "github.com/Skotchmaster/blog_backend/internal/middleware/auth"
)

// ReadyCheck reports whether a backing service can take traffic.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Auth   *AuthHTTP
	Users  *UsersHTTP
	Roles  *RolesHTTP
	Posts  *PostsHTTP
	Images *ImagesHTTP

	Guards  *authmw.Guards
	Metrics *metrics.Metrics
	Ready   map[string]ReadyCheck

	StaticPath         string
	LoginRatePerMinute int
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	if d.StaticPath != "" {
		e.Static("/static", d.StaticPath)
	}

	login := d.Guards.RequireLogin()
	refresh := d.Guards.RequireRefresh()
	admin := d.Guards.AdminOnly

	authGroup := e.Group("/auth")
	authGroup.POST("/login", d.Auth.Login, loginLimiter(d.LoginRatePerMinute))
	authGroup.POST("/refresh", d.Auth.Refresh, refresh)
	authGroup.DELETE("/logout", d.Auth.LogOut, login)
	authGroup.DELETE("/access_revoke", d.Auth.RevokeAccess, login)
	authGroup.DELETE("/refresh_revoke", d.Auth.RevokeRefresh, refresh)

	users := e.Group("/users")
	users.POST("", d.Users.Create)
	users.GET("", d.Users.List)
	users.GET("/me", d.Users.Me, login)
	users.PUT("/me/avatar", d.Users.SetAvatar, login)
	users.GET("/:username", d.Users.Get, login)
	users.PATCH("/:username", d.Users.Patch, login)
	users.DELETE("/:username", d.Users.Delete, login)

	e.GET("/images/:id", d.Images.Get)

	posts := e.Group("/posts", login)
	registerPosts(posts, d.Posts)

	roles := e.Group("/roles", login, admin)
	registerRoles(roles, d.Roles)

	adminGroup := e.Group("/admin", login, admin)
	registerRoles(adminGroup.Group("/roles"), d.Roles)
	registerPosts(adminGroup.Group("/posts"), d.Posts)
	adminGroup.PUT("/users/:username/role", d.Users.SetRole)
}

func registerPosts(g *echo.Group, h *PostsHTTP) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
}

func registerRoles(g *echo.Group, h *RolesHTTP) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:name", h.Get)
	g.PATCH("/:name", h.Patch)
	g.DELETE("/:name", h.Delete)
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_check_failed", "dependency", name, "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"detail": name + " unavailable"})
		}
	}
	return c.NoContent(http.StatusOK)
}

// loginLimiter throttles login attempts per client IP. perMinute <= 0 disables it.
func loginLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, id string, err error) error {
			logging.FromContext(c.Request().Context()).Warn("login_rate_limited", "remote_ip", id)
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts")
		},
	})
}
