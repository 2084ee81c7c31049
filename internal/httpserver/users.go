package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/jwtmiddleware"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	authmw "github.com/Skotchmaster/blog_backend/internal/middleware/auth"
	"github.com/Skotchmaster/blog_backend/internal/service"
	"github.com/Skotchmaster/blog_backend/internal/transport"
	"github.com/Skotchmaster/blog_backend/internal/util"
)

type UsersHTTP struct {
	Svc       *service.UserService
	Images    *service.ImageService
	Gate      *auth.Gate
	Cookies   Cookies
	AccessTTL time.Duration
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create")

	var req transport.CreateUserRequest
	if err := bindValid(c, l, "create_user_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UsersHTTP) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context(), util.Limit(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) Me(c echo.Context) error {
	user, err := h.Gate.CurrentUser(c.Request().Context(), jwtmiddleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Get(c echo.Context) error {
	user, err := h.Svc.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.patch")

	var req transport.PatchUserRequest
	if err := bindValid(c, l, "patch_user_error", &req); err != nil {
		return err
	}

	user, access, err := h.Svc.Update(ctx, jwtmiddleware.Principal(c), c.Param("username"), req)
	if err != nil {
		return err
	}

	if access != "" && h.Cookies.Enabled {
		c.SetCookie(h.Cookies.CreateCookie(authmw.AccessCookie, access, "/", time.Now().Add(h.AccessTTL)))
	}
	return c.JSON(http.StatusOK, transport.UserUpdateResponse{User: user, AccessToken: access})
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), jwtmiddleware.Principal(c), c.Param("username")); err != nil {
		return err
	}
	if h.Cookies.Enabled {
		c.SetCookie(h.Cookies.DeleteCookie(authmw.AccessCookie, "/"))
		c.SetCookie(h.Cookies.DeleteCookie(authmw.RefreshCookie, "/"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.set_role")

	var req transport.SetRoleRequest
	if err := bindValid(c, l, "set_role_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.SetRole(ctx, c.Param("username"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetAvatar expects a multipart form with the picture under "file".
func (h *UsersHTTP) SetAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.set_avatar")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("set_avatar_error", "status", 400, "reason", "missing file", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	f, err := fh.Open()
	if err != nil {
		l.Error("set_avatar_error", "status", 500, "reason", "cannot open upload", "error", err)
		return err
	}
	defer f.Close()

	img, err := h.Images.SetAvatar(ctx, jwtmiddleware.Principal(c), fh.Filename, fh.Size, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, img)
}
