package auth

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/tokens"
	"github.com/labstack/echo/v4"
)

type validatorFunc func(claims *tokens.AccessClaims) error

func (t *TokenService) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return t.requireAuthWithValidator(next, nil)
}

func (t *TokenService) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, t.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if validator != nil {
			if err := validator(claims); err != nil {
				return err
			}
		}

		setUserContext(c, claims)
		if _, err := UserID(c); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
		}
		return next(c)
	}
}
