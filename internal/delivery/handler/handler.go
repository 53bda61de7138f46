package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/interfaces"
)

const (
	sessionCookie     = "session"
	contextUserEmail  = "user_email"
	contextToken      = "session_token"
	idempotencyKeyHdr = "Idempotency-Key"
	defaultSessionTTL = 24 * time.Hour
)

type Options struct {
	SessionTTL   time.Duration
	CookieSecure bool

	// PostLoginRedirect, when set, is where the browser goes after a
	// successful federated callback instead of receiving JSON.
	PostLoginRedirect string
}

// Handler serves the JSON API.
type Handler struct {
	users interfaces.UserService
	tasks interfaces.TaskService
	auth  interfaces.AuthService
	opts  Options
}

func NewHandler(users interfaces.UserService, tasks interfaces.TaskService, auth interfaces.AuthService, opts Options) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	return &Handler{
		users: users,
		tasks: tasks,
		auth:  auth,
		opts:  opts,
	}
}

func (h *Handler) Health(c echo.Context) error {
	return sendJSONResponse(c, map[string]string{"service": "todo-service"}, http.StatusOK)
}

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func currentEmail(c echo.Context) string {
	email, _ := c.Get(contextUserEmail).(string)
	return email
}
