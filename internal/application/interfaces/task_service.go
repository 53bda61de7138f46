package interfaces

import (
	"context"

	"todo-service/internal/application/command"
	"todo-service/internal/domain/entities"
)

type TaskService interface {
	AddTask(ctx context.Context, ownerEmail, name, priority string) (string, error)
	CreateTask(ctx context.Context, createCommand *command.CreateTaskCommand) (*command.CreateTaskCommandResult, error)
	FindTaskByName(ctx context.Context, ownerEmail, name string) (*entities.Task, error)
	GetTask(ctx context.Context, taskID string) (*entities.Task, error)
	ListTasks(ctx context.Context, ownerEmail string) ([]entities.Task, error)
	UpdateTask(ctx context.Context, taskID string, update entities.TaskUpdate) (bool, error)
	DeleteTask(ctx context.Context, taskID string) (int64, error)
}
