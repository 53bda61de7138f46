package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/services"
)

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireSession rejects requests without a live session and stores the
// caller's email on the context.
func (h *Handler) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := sessionToken(c)
		if token == "" {
			return sendError(c, services.ErrUnauthenticated)
		}
		email, err := h.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			return sendError(c, err)
		}
		c.Set(contextUserEmail, email)
		c.Set(contextToken, token)
		return next(c)
	}
}
