package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/service"
)

type ImagesHTTP struct {
	Svc *service.ImageService
}

func (h *ImagesHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "images.get")

	id, err := parseID(c, l, "get_image_error")
	if err != nil {
		return err
	}
	img, err := h.Svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, img)
}
