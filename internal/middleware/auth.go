package middleware

import (
	"net/http"
	"strings"

	"course-marketplace/internal/auth"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Cookie names set at login; each principal kind has its own.
const (
	LearnerCookie = "jwt"
	AdminCookie   = "admin_jwt"
)

// RequireLearner rejects any request that does not carry a valid learner token.
func RequireLearner(tm *auth.TokenManager) echo.MiddlewareFunc {
	return requirePrincipal(tm, LearnerCookie)
}

// RequireAdmin rejects any request that does not carry a valid administrator token.
func RequireAdmin(tm *auth.TokenManager) echo.MiddlewareFunc {
	return requirePrincipal(tm, AdminCookie)
}

func requirePrincipal(tm *auth.TokenManager, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := tm.Verify(tokenFromRequest(c, cookieName))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"errors": "Unauthorized",
				})
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// tokenFromRequest prefers the bearer header and falls back to the login cookie.
func tokenFromRequest(c echo.Context, cookieName string) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}

	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// PrincipalFrom returns the principal stored by RequireLearner/RequireAdmin.
func PrincipalFrom(c echo.Context) (*auth.Principal, bool) {
	p, ok := c.Get(principalKey).(*auth.Principal)
	return p, ok && p != nil
}
