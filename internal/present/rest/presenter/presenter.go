package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.InfoContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.InfoContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Unavailable(c echo.Context, msg string) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: msg})
}

// InternalError hides the cause from the client and logs it.
func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Server Error"})
}
