package auth

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Skotchmaster/online_cinema/internal/tokens"
	"github.com/labstack/echo/v4"
)

const (
	accessCookie = "accessToken"
	bearerPrefix = "Bearer "

	ctxUserID = "user_id"
	ctxRole   = "role"

	RoleAdmin = "admin"
)

type TokenService struct {
	JWTSecret []byte
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{JWTSecret: secret}
}

// accessToken prefers the Authorization header and falls back to the cookie.
func accessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if ck, err := c.Cookie(accessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

var ErrUnauthorized = errors.New("unauthorized")

// UserID returns the authenticated user's numeric id.
func UserID(c echo.Context) (uint, error) {
	s, ok := c.Get(ctxUserID).(string)
	if !ok || s == "" {
		return 0, ErrUnauthorized
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrUnauthorized
	}
	return uint(id), nil
}

func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
