package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"todo-service/internal/application/command"
	"todo-service/internal/application/interfaces"
	"todo-service/internal/application/mapper"
	"todo-service/internal/db"
	"todo-service/internal/domain/entities"
	"todo-service/internal/domain/repositories"
	"todo-service/internal/messaging"
)

// TaskService is the task store. It owns the tasks collection and keeps each
// owner's tasks list in step with task creation and deletion. The list is a
// convenience index; a task's user_id is the authoritative owner.
type TaskService struct {
	gateway         db.Gateway
	users           interfaces.UserService
	idempotencyRepo repositories.IdempotencyRepository
	publisher       messaging.Publisher
}

// NewTaskService wires the store. idempotencyRepo may be nil, which disables
// idempotency keys on CreateTask.
func NewTaskService(
	gateway db.Gateway,
	users interfaces.UserService,
	idempotencyRepo repositories.IdempotencyRepository,
	publisher messaging.Publisher,
) *TaskService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &TaskService{
		gateway:         gateway,
		users:           users,
		idempotencyRepo: idempotencyRepo,
		publisher:       publisher,
	}
}

func (s *TaskService) AddTask(ctx context.Context, ownerEmail, name, priority string) (string, error) {
	task, err := s.addTask(ctx, ownerEmail, name, priority)
	if err != nil {
		return "", err
	}
	return task.ID.Hex(), nil
}

func (s *TaskService) addTask(ctx context.Context, ownerEmail, name, priority string) (*entities.Task, error) {
	owner, err := s.owner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	task, err := entities.NewTask(owner, name, priority)
	if err != nil {
		return nil, err
	}

	id, err := s.gateway.Insert(ctx, entities.TasksCollection, task)
	if err != nil {
		return nil, err
	}
	task.ID = id

	// Not transactional with the insert above.
	_, err = s.gateway.UpdateOne(ctx, entities.UsersCollection,
		bson.M{"_id": owner.ID},
		bson.M{"$push": bson.M{"tasks": id}},
	)
	if err != nil {
		log.Printf("task %s created but not linked to %s: %v", id.Hex(), ownerEmail, err)
		return nil, fmt.Errorf("link task to owner: %w", err)
	}

	s.publish(ctx, messaging.SubjectTaskCreated, messaging.TaskEvent{
		TaskID:     id.Hex(),
		OwnerEmail: ownerEmail,
		Name:       task.Name,
		Priority:   string(task.Priority),
		OccurredAt: time.Now().UTC(),
	})
	return task, nil
}

// CreateTask adds a task on behalf of a request. When an idempotency key is
// supplied, the first result stored for (owner, key) is replayed.
func (s *TaskService) CreateTask(ctx context.Context, createCommand *command.CreateTaskCommand) (*command.CreateTaskCommandResult, error) {
	var key string
	if createCommand.IdempotencyKey != "" && s.idempotencyRepo != nil {
		key = createCommand.OwnerEmail + ":" + createCommand.IdempotencyKey

		existingRecord, err := s.idempotencyRepo.FindByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existingRecord != nil {
			var result command.CreateTaskCommandResult
			if err := json.Unmarshal([]byte(existingRecord.Response), &result); err != nil {
				return nil, err
			}
			return &result, nil
		}
	}

	task, err := s.addTask(ctx, createCommand.OwnerEmail, createCommand.Name, createCommand.Priority)
	if err != nil {
		return nil, err
	}

	result := command.CreateTaskCommandResult{
		Result: mapper.NewTaskResultFromEntity(task),
	}

	if key != "" {
		s.saveIdempotencyRecord(ctx, key, createCommand, result)
	}

	return &result, nil
}

// saveIdempotencyRecord stores the response for key. Failures are logged
// only; the task already exists.
func (s *TaskService) saveIdempotencyRecord(ctx context.Context, key string, request, response interface{}) {
	record, err := newIdempotencyRecord(key, request, response, http.StatusCreated)
	if err != nil {
		log.Printf("Failed to encode idempotency record %s: %v", key, err)
		return
	}
	if _, err := s.idempotencyRepo.Create(ctx, record); err != nil {
		log.Printf("Failed to store idempotency record: %v", err)
	}
}

func newIdempotencyRecord(key string, request, response interface{}, status int) (*entities.IdempotencyRecord, error) {
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	record := entities.NewIdempotencyRecord(key, string(requestJSON))
	record.SetResponse(string(responseJSON), status)
	return record, nil
}

// FindTaskByName returns the owner's first task with exactly this name, or
// nil if there is none.
func (s *TaskService) FindTaskByName(ctx context.Context, ownerEmail, name string) (*entities.Task, error) {
	owner, err := s.owner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"name": name, "user_id": owner.ID})
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*entities.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *TaskService) ListTasks(ctx context.Context, ownerEmail string) ([]entities.Task, error) {
	owner, err := s.owner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	tasks := []entities.Task{}
	if err := s.gateway.Find(ctx, entities.TasksCollection, bson.M{"user_id": owner.ID}, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask applies the supplied fields and reports whether the stored task
// changed. An empty update does not touch the store.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, update entities.TaskUpdate) (bool, error) {
	if update.IsEmpty() {
		return false, nil
	}

	id, err := parseTaskID(taskID)
	if err != nil {
		return false, err
	}
	set, err := update.SetDocument()
	if err != nil {
		return false, err
	}

	modified, err := s.gateway.UpdateOne(ctx, entities.TasksCollection, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	if modified == 0 {
		return false, nil
	}

	event := messaging.TaskEvent{TaskID: id.Hex(), OccurredAt: time.Now().UTC()}
	if name, ok := set["name"].(string); ok {
		event.Name = name
	}
	if priority, ok := set["priority"].(string); ok {
		event.Priority = priority
	}
	s.publish(ctx, messaging.SubjectTaskUpdated, event)
	return true, nil
}

// DeleteTask removes one task and prunes its id from the owner's tasks list.
// A failed prune is logged only: the task is already gone.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) (int64, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.gateway.DeleteOne(ctx, entities.TasksCollection, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, nil
	}

	_, err = s.gateway.UpdateOne(ctx, entities.UsersCollection,
		bson.M{"tasks": id},
		bson.M{"$pull": bson.M{"tasks": id}},
	)
	if err != nil {
		log.Printf("task %s deleted but still referenced by its owner: %v", id.Hex(), err)
	}

	s.publish(ctx, messaging.SubjectTaskDeleted, messaging.TaskEvent{TaskID: id.Hex(), OccurredAt: time.Now().UTC()})
	return deleted, nil
}

func (s *TaskService) owner(ctx context.Context, email string) (*entities.User, error) {
	owner, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrUserNotFound, email)
	}
	return owner, nil
}

func (s *TaskService) findOne(ctx context.Context, filter bson.M) (*entities.Task, error) {
	var tasks []entities.Task
	if err := s.gateway.Find(ctx, entities.TasksCollection, filter, nil, &tasks); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

func (s *TaskService) publish(ctx context.Context, subject string, event messaging.TaskEvent) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		log.Printf("Failed to publish %s: %v", subject, err)
	}
}

func parseTaskID(taskID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return primitive.NilObjectID, entities.NewValidationError("task_id", "is not a valid identifier")
	}
	return id, nil
}
