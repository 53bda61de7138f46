package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/services"
	"todo-service/internal/db"
	"todo-service/internal/domain/entities"
	"todo-service/internal/infrastructure"
)

// Response represents a standard API response format
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func sendJSONResponse(c echo.Context, data interface{}, statusCode int) error {
	return c.JSON(statusCode, Response{
		Status: "success",
		Data:   data,
		Code:   statusCode,
	})
}

func sendJSONError(c echo.Context, errMsg string, statusCode int) error {
	return c.JSON(statusCode, Response{
		Status:  "error",
		Message: errMsg,
		Code:    statusCode,
	})
}

// sendError maps a service error to its status code. Unrecognized errors are
// logged and reported without detail.
func sendError(c echo.Context, err error) error {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		return sendJSONError(c, "internal server error", status)
	}
	return sendJSONError(c, err.Error(), status)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFederatedLoginDisabled):
		return http.StatusNotFound
	case errors.Is(err, infrastructure.ErrUnverifiedEmail):
		return http.StatusForbidden
	case errors.Is(err, infrastructure.ErrIdentityProvider):
		return http.StatusBadGateway
	case errors.Is(err, db.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders echo's own errors (unknown route, bad method, panics
// recovered by middleware) in the same envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = sendJSONError(c, msg, he.Code)
		return
	}
	_ = sendError(c, err)
}
