package handler

import (
	"net/http"
	"time"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/middleware"
	"course-marketplace/internal/serverrors"

	"github.com/labstack/echo/v4"
)

func setSessionCookie(c echo.Context, name, token string, expiresAt time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func principal(c echo.Context) (*auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, serverrors.ErrUnauthorized
	}
	return p, nil
}
