package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/command"
	"todo-service/internal/application/mapper"
	"todo-service/internal/application/query"
	"todo-service/internal/application/services"
	"todo-service/internal/domain/entities"
)

func (h *Handler) Register(c echo.Context) error {
	var registerCommand command.RegisterUserCommand
	if err := c.Bind(&registerCommand); err != nil {
		return sendJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	email := strings.TrimSpace(registerCommand.Email)
	if email == "" {
		return sendError(c, entities.NewValidationError("email", "is required"))
	}
	if registerCommand.Password == nil {
		return sendError(c, entities.NewValidationError("password", "is required"))
	}

	ctx := c.Request().Context()
	created, err := h.users.Register(ctx, email, registerCommand.Password)
	if err != nil {
		return sendError(c, err)
	}
	user, err := h.users.FindByEmail(ctx, email)
	if err != nil {
		return sendError(c, err)
	}

	result := command.RegisterUserCommandResult{Created: created}
	if user != nil {
		result.Result = mapper.NewUserResultFromEntity(user)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return sendJSONResponse(c, result, status)
}

func (h *Handler) Login(c echo.Context) error {
	var loginCommand command.LoginUserCommand
	if err := c.Bind(&loginCommand); err != nil {
		return sendJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	loginCommand.Email = strings.TrimSpace(loginCommand.Email)
	if loginCommand.Email == "" || loginCommand.Password == "" {
		return sendError(c, services.ErrInvalidCredentials)
	}

	result, err := h.auth.Login(c.Request().Context(), &loginCommand)
	if err != nil {
		return sendError(c, err)
	}
	h.setSessionCookie(c, result.Token)
	return sendJSONResponse(c, result, http.StatusOK)
}

// FederatedLogin redirects the browser to the identity provider.
func (h *Handler) FederatedLogin(c echo.Context) error {
	redirect, err := h.auth.BeginFederatedLogin(c.Request().Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Redirect(http.StatusFound, redirect)
}

// AuthCallback completes a federated login started by FederatedLogin.
func (h *Handler) AuthCallback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		msg := c.QueryParam("error_description")
		if msg == "" {
			msg = providerErr
		}
		return sendJSONError(c, msg, http.StatusBadRequest)
	}

	result, err := h.auth.CompleteFederatedLogin(c.Request().Context(), c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		return sendError(c, err)
	}
	h.setSessionCookie(c, result.Token)
	if h.opts.PostLoginRedirect != "" {
		return c.Redirect(http.StatusFound, h.opts.PostLoginRedirect)
	}
	return sendJSONResponse(c, result, http.StatusOK)
}

func (h *Handler) Logout(c echo.Context) error {
	result, err := h.auth.Logout(c.Request().Context(), sessionToken(c))
	if err != nil {
		return sendError(c, err)
	}
	h.clearSessionCookie(c)
	return sendJSONResponse(c, result, http.StatusOK)
}

func (h *Handler) Me(c echo.Context) error {
	email := currentEmail(c)
	user, err := h.users.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return sendError(c, err)
	}
	if user == nil {
		return sendError(c, entities.ErrUserNotFound)
	}
	return sendJSONResponse(c, query.UserQueryResult{Result: mapper.NewUserResultFromEntity(user)}, http.StatusOK)
}
