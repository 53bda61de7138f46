package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/command"
	"todo-service/internal/application/mapper"
	"todo-service/internal/application/query"
	"todo-service/internal/domain/entities"
)

var errTaskNotFound = errors.New("task not found")

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.tasks.ListTasks(c.Request().Context(), currentEmail(c))
	if err != nil {
		return sendError(c, err)
	}
	return sendJSONResponse(c, query.TaskQueryListResult{Result: mapper.NewTaskResultsFromEntities(tasks)}, http.StatusOK)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var createCommand command.CreateTaskCommand
	if err := c.Bind(&createCommand); err != nil {
		return sendJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	createCommand.OwnerEmail = currentEmail(c)
	if key := strings.TrimSpace(c.Request().Header.Get(idempotencyKeyHdr)); key != "" {
		createCommand.IdempotencyKey = key
	}

	result, err := h.tasks.CreateTask(c.Request().Context(), &createCommand)
	if err != nil {
		return sendError(c, err)
	}
	return sendJSONResponse(c, result, http.StatusCreated)
}

func (h *Handler) SearchTask(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return sendError(c, entities.NewValidationError("name", "is required"))
	}
	task, err := h.tasks.FindTaskByName(c.Request().Context(), currentEmail(c), name)
	if err != nil {
		return sendError(c, err)
	}
	if task == nil {
		return sendJSONError(c, errTaskNotFound.Error(), http.StatusNotFound)
	}
	return sendJSONResponse(c, query.TaskQueryResult{Result: mapper.NewTaskResultFromEntity(task)}, http.StatusOK)
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.ownedTask(c)
	if err != nil {
		return h.taskError(c, err)
	}
	return sendJSONResponse(c, query.TaskQueryResult{Result: mapper.NewTaskResultFromEntity(task)}, http.StatusOK)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	task, err := h.ownedTask(c)
	if err != nil {
		return h.taskError(c, err)
	}

	var updateCommand command.UpdateTaskCommand
	if err := c.Bind(&updateCommand); err != nil {
		return sendJSONError(c, "invalid request body", http.StatusBadRequest)
	}

	updated, err := h.tasks.UpdateTask(c.Request().Context(), task.ID.Hex(), entities.TaskUpdate{
		Name:     updateCommand.Name,
		Priority: updateCommand.Priority,
	})
	if err != nil {
		return sendError(c, err)
	}
	return sendJSONResponse(c, command.UpdateTaskCommandResult{Updated: updated}, http.StatusOK)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	task, err := h.ownedTask(c)
	if err != nil {
		return h.taskError(c, err)
	}

	deleted, err := h.tasks.DeleteTask(c.Request().Context(), task.ID.Hex())
	if err != nil {
		return sendError(c, err)
	}
	return sendJSONResponse(c, command.DeleteTaskCommandResult{Deleted: deleted}, http.StatusOK)
}

// ownedTask loads the :id task. A task that belongs to someone else is
// reported as missing.
func (h *Handler) ownedTask(c echo.Context) (*entities.Task, error) {
	task, err := h.tasks.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if task == nil || task.OwnerEmail != currentEmail(c) {
		return nil, errTaskNotFound
	}
	return task, nil
}

func (h *Handler) taskError(c echo.Context, err error) error {
	if errors.Is(err, errTaskNotFound) {
		return sendJSONError(c, err.Error(), http.StatusNotFound)
	}
	return sendError(c, err)
}
