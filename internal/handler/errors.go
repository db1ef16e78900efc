package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"course-marketplace/internal/serverrors"

	"github.com/labstack/echo/v4"
)

// InputError carries a message that is safe to show the client.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return serverrors.ErrInvalidInput }

func invalidInput(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// ErrorHandler renders every failed request as {"errors": "<message>"}.
// Internal details are logged and never sent to the client.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status  int
			message string
			httpErr *echo.HTTPError
			inErr   *InputError
		)
		switch {
		case errors.As(err, &httpErr):
			status = httpErr.Code
			message = fmt.Sprint(httpErr.Message)
		default:
			status, message = serverrors.HTTPStatus(err)
			if status == http.StatusBadRequest && errors.As(err, &inErr) {
				message = inErr.Message
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]string{"errors": message})
		}
		if err != nil {
			log.Error("write error response", slog.Any("error", err))
		}
	}
}
