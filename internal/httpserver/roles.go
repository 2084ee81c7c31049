package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/service"
	"github.com/Skotchmaster/blog_backend/internal/transport"
)

type RolesHTTP struct {
	Svc *service.RoleService
}

func (h *RolesHTTP) List(c echo.Context) error {
	roles, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RolesHTTP) Get(c echo.Context) error {
	role, err := h.Svc.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RolesHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "roles.create")

	var req transport.RoleRequest
	if err := bindValid(c, l, "create_role_error", &req); err != nil {
		return err
	}
	role, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	l.Info("create_role_success", "role", role.Name)
	return c.JSON(http.StatusCreated, role)
}

func (h *RolesHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "roles.patch")

	var req transport.PatchRoleRequest
	if err := bindValid(c, l, "patch_role_error", &req); err != nil {
		return err
	}
	role, err := h.Svc.Update(ctx, c.Param("name"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RolesHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
