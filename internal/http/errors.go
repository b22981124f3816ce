package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	applog "tutorbook/internal/log"
	"tutorbook/internal/services"
	"tutorbook/internal/storage"
)

var (
	ErrHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
	ErrHttpConflict = echo.NewHTTPError(http.StatusConflict, "at least one group must remain")
)

// AppHTTPErrorHandler renders every handler error as JSON.
func AppHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message any

	var (
		httpErr *echo.HTTPError
		vErrs   validator.ValidationErrors
		svcErr  *services.ValidationError
	)
	switch {
	case errors.As(err, &httpErr):
		if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = herr
		}
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &vErrs):
		fldErrs := make(map[string]string)
		for _, vErr := range vErrs {
			fldErrs[vErr.Field()] = vErr.Translate(Translator)
		}
		code = http.StatusBadRequest
		message = echo.Map{"errors": fldErrs}
	case errors.As(err, &svcErr):
		code = http.StatusBadRequest
		message = echo.Map{"errors": svcErr.Fields}
	case errors.Is(err, storage.ErrNotFound):
		code = ErrHttpNotFound.Code
		message = ErrHttpNotFound.Message
	case errors.Is(err, storage.ErrLastGroup):
		code = ErrHttpConflict.Code
		message = ErrHttpConflict.Message
	default:
		code = http.StatusInternalServerError
		message = http.StatusText(http.StatusInternalServerError)
		ctx := c.Request().Context()
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed", applog.FieldError, err)
	}

	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		c.Echo().Logger.Error(err)
	}
}
