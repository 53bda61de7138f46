package mapper

import (
	"todo-service/internal/application/common"
	"todo-service/internal/domain/entities"
)

func NewUserResultFromEntity(user *entities.User) *common.UserResult {
	taskIds := make([]string, 0, len(user.Tasks))
	for _, id := range user.Tasks {
		taskIds = append(taskIds, id.Hex())
	}
	return &common.UserResult{
		Id:          user.ID.Hex(),
		Email:       user.Email,
		HasPassword: user.HasPassword(),
		TaskIds:     taskIds,
		CreatedAt:   user.CreatedAt,
	}
}
