package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/jwtmiddleware"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/service"
	"github.com/Skotchmaster/blog_backend/internal/transport"
	"github.com/Skotchmaster/blog_backend/internal/util"
)

type PostsHTTP struct {
	Svc *service.PostService
}

// List pages through posts, newest first. A non-empty q switches to full text search.
func (h *PostsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "posts.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var (
		total int64
		items []models.Post
		err   error
	)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		total, items, err = h.Svc.Search(ctx, q, offset, limit)
	} else {
		total, items, err = h.Svc.List(ctx, offset, limit)
	}
	if err != nil {
		l.Error("get_posts_error", "status", 500, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, transport.NewPage(items, page, offset, limit, total))
}

func (h *PostsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "posts.get")

	id, err := parseID(c, l, "get_post_error")
	if err != nil {
		return err
	}
	post, err := h.Svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "posts.create")

	var req transport.PostRequest
	if err := bindValid(c, l, "create_post_error", &req); err != nil {
		return err
	}
	post, err := h.Svc.Create(ctx, jwtmiddleware.Principal(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *PostsHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "posts.patch")

	id, err := parseID(c, l, "patch_post_error")
	if err != nil {
		return err
	}
	var req transport.PatchPostRequest
	if err := bindValid(c, l, "patch_post_error", &req); err != nil {
		return err
	}
	post, err := h.Svc.Update(ctx, jwtmiddleware.Principal(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "posts.delete")

	id, err := parseID(c, l, "delete_post_error")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, jwtmiddleware.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
