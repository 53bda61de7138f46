package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"todo-service/internal/db"
	"todo-service/internal/domain/entities"
	"todo-service/internal/messaging"
)

// UserService is the user directory. It owns the users collection.
type UserService struct {
	gateway   db.Gateway
	publisher messaging.Publisher
}

func NewUserService(gateway db.Gateway, publisher messaging.Publisher) *UserService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &UserService{
		gateway:   gateway,
		publisher: publisher,
	}
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var users []entities.User
	if err := s.gateway.Find(ctx, entities.UsersCollection, bson.M{"email": email}, nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *UserService) Register(ctx context.Context, email string, password *string) (bool, error) {
	_, created, err := s.register(ctx, email, password)
	return created, err
}

func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (bool, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.CheckPassword(password), nil
}

func (s *UserService) ResolveOrProvision(ctx context.Context, email string) (*entities.User, error) {
	user, _, err := s.register(ctx, email, nil)
	return user, err
}

func (s *UserService) register(ctx context.Context, email string, password *string) (*entities.User, bool, error) {
	existing, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	user := entities.NewUser(email)
	if password != nil {
		if err := user.SetPassword(*password); err != nil {
			return nil, false, err
		}
	}

	id, err := s.gateway.Insert(ctx, entities.UsersCollection, user)
	if errors.Is(err, db.ErrDuplicateKey) {
		// A concurrent registration for the same email won.
		existing, err := s.FindByEmail(ctx, email)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	user.ID = id

	log.Printf("registered user %s", email)
	event := messaging.UserRegistered{
		Email:      email,
		Federated:  password == nil,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, messaging.SubjectUserRegistered, event); err != nil {
		log.Printf("Failed to publish %s: %v", messaging.SubjectUserRegistered, err)
	}
	return user, true, nil
}
