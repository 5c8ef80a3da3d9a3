package web

import (
	"errors"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Details any    `json:"details,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// JSONErrorHandler renders errors as
// {"error":{"code","message","details"},"request_id"}. Server errors are
// logged with their cause and answered with a generic message.
func JSONErrorHandler(c Context, err error) error {
	he, ok := AsHTTPError(err)
	if !ok {
		code := http.StatusInternalServerError
		var sc StatusCoder
		if errors.As(err, &sc) {
			code = sc.StatusCode()
		}
		he = NewHTTPError(code, http.StatusText(code), WithError(err))
	}

	if he.Code >= http.StatusInternalServerError {
		cause := he.Err
		if cause == nil {
			cause = err
		}
		c.Logger().ErrorContext(c, "request failed",
			slog.Int("status", he.Code),
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", cause),
		)
	}

	return c.JSON(he.Code, errorResponse{
		Error: errorBody{
			Code:    he.Slug(),
			Message: he.Message,
			Details: he.Details,
		},
		RequestID: RequestID(c),
	})
}

func notFound(c Context) error {
	return ErrNotFound("route not found")
}

func methodNotAllowed(c Context) error {
	return NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
}
