package auth

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/tokens"
	"github.com/labstack/echo/v4"
)

func (t *TokenService) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return t.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}
