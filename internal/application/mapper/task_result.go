package mapper

import (
	"todo-service/internal/application/common"
	"todo-service/internal/domain/entities"
)

func NewTaskResultFromEntity(task *entities.Task) *common.TaskResult {
	return &common.TaskResult{
		Id:         task.ID.Hex(),
		Name:       task.Name,
		Priority:   string(task.Priority),
		OwnerEmail: task.OwnerEmail,
		OwnerId:    task.OwnerID.Hex(),
		CreatedAt:  task.CreatedAt,
	}
}

func NewTaskResultsFromEntities(tasks []entities.Task) []*common.TaskResult {
	results := make([]*common.TaskResult, 0, len(tasks))
	for i := range tasks {
		results = append(results, NewTaskResultFromEntity(&tasks[i]))
	}
	return results
}
