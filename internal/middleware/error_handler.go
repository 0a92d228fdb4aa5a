package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every failed API request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewErrorHandler creates a JSON error handler for Echo.
// In development the underlying error is included in the response.
func NewErrorHandler(logger *slog.Logger, development bool) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := ""

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if message == "" {
			switch code {
			case http.StatusNotFound:
				message = "Resource not found"
			case http.StatusTooManyRequests:
				message = "Too many requests, please try again later"
			case http.StatusRequestEntityTooLarge:
				message = "Request body too large"
			default:
				message = "Something went very wrong!"
			}
		}

		status := "error"
		if code >= 400 && code < 500 {
			status = "fail"
		}

		if code >= 500 {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}

		body := ErrorResponse{Success: false, Status: status, Message: message}
		if development {
			body.Error = err.Error()
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", writeErr)
		}
	}
}
