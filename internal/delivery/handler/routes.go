package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	// RateLimitRPS and RateLimitBurst bound requests per client IP. A
	// non-positive RPS disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int
	RequestLogging bool
}

// NewRouter builds the echo instance with middleware and all routes.
func NewRouter(h *Handler, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	if cfg.RequestLogging {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimitRPS),
				Burst:     cfg.RateLimitBurst,
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return sendJSONError(c, "cannot identify client", http.StatusForbidden)
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return sendJSONError(c, "Too many requests", http.StatusTooManyRequests)
			},
		}))
	}

	e.GET("/health", h.Health)
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)
	e.GET("/login/federated", h.FederatedLogin)
	e.GET("/auth/callback", h.AuthCallback)
	e.POST("/logout", h.Logout)

	e.GET("/me", h.Me, h.RequireSession)

	tasks := e.Group("/tasks", h.RequireSession)
	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/search", h.SearchTask)
	tasks.GET("/:id", h.GetTask)
	tasks.PATCH("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)

	return e
}
