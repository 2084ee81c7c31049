package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/logging"
)

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadCredentials, apperr.KindTokenInvalid, apperr.KindTokenExpired,
		apperr.KindTokenWrongType, apperr.KindTokenRevoked:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound, apperr.KindConflict, apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"detail": ...}. Field level validation errors are
// rendered as a map of field name to message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := render(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, map[string]any{"detail": detail})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

func render(err error) (int, any) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		var ae *apperr.Error
		if he.Internal != nil && errors.As(he.Internal, &ae) {
			return render(ae)
		}
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		if he.Message == nil {
			return he.Code, http.StatusText(he.Code)
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	kind := apperr.KindOf(err)
	if kind == apperr.KindValidation {
		var fields validation.Errors
		if errors.As(err, &fields) {
			return http.StatusUnprocessableEntity, fields
		}
	}
	return StatusOf(kind), apperr.DetailOf(err)
}
