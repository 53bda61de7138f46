package entities

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TasksCollection = "tasks"

type Task struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Priority   Priority           `bson:"priority" json:"priority"`
	OwnerEmail string             `bson:"user_email" json:"owner_email"`
	OwnerID    primitive.ObjectID `bson:"user_id" json:"owner_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// NewTask builds a task owned by owner. The priority is parsed
// case-insensitively.
func NewTask(owner *User, name, priority string) (*Task, error) {
	if err := validateTaskName(name); err != nil {
		return nil, err
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return nil, err
	}
	return &Task{
		Name:       name,
		Priority:   p,
		OwnerEmail: owner.Email,
		OwnerID:    owner.ID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// TaskUpdate is a partial update. A nil field is left untouched; a non-nil
// field is validated and applied, so an empty string is rejected rather than
// silently skipped.
type TaskUpdate struct {
	Name     *string
	Priority *string
}

func (u TaskUpdate) IsEmpty() bool {
	return u.Name == nil && u.Priority == nil
}

// SetDocument validates the supplied fields and returns the $set body.
func (u TaskUpdate) SetDocument() (bson.M, error) {
	set := bson.M{}
	if u.Name != nil {
		if err := validateTaskName(*u.Name); err != nil {
			return nil, err
		}
		set["name"] = *u.Name
	}
	if u.Priority != nil {
		p, err := ParsePriority(*u.Priority)
		if err != nil {
			return nil, err
		}
		set["priority"] = string(p)
	}
	return set, nil
}

func validateTaskName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	return nil
}
