package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/online_cinema/internal/middleware/auth"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/labstack/echo/v4"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs a service error under "<op>_error" and converts it to an HTTP error.
func fail(l *slog.Logger, op string, err error) error {
	code := statusFor(err)
	switch code {
	case http.StatusInternalServerError:
		l.Error(op+"_error", "status", code, "reason", "internal error", "error", err)
		return echo.NewHTTPError(code, "internal error")
	case http.StatusBadGateway:
		l.Error(op+"_error", "status", code, "reason", "payment provider error", "error", err)
		return echo.NewHTTPError(code, "payment provider error")
	default:
		l.Warn(op+"_error", "status", code, "reason", err.Error())
		return echo.NewHTTPError(code, err.Error())
	}
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func userID(c echo.Context, l *slog.Logger, op string) (uint, error) {
	id, err := auth.UserID(c)
	if err != nil {
		l.Warn(op+"_error", "status", http.StatusUnauthorized, "reason", "unauthorized")
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func pathID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(n), nil
}
