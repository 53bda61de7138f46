package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const UsersCollection = "users"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// User is an account identified by email. PasswordHash is nil for accounts
// provisioned through federated login; those cannot log in locally.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash *string              `bson:"password_hash" json:"-"`
	Tasks        []primitive.ObjectID `bson:"tasks" json:"tasks"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
}

func NewUser(email string) *User {
	return &User{
		Email:     email,
		Tasks:     make([]primitive.ObjectID, 0),
		CreatedAt: time.Now().UTC(),
	}
}

func (u *User) SetPassword(password string) error {
	if password == "" {
		return NewValidationError("password", "must not be empty")
	}
	if len(password) > MaxPasswordBytes {
		return NewValidationError("password", "must be at most 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hash := string(hashed)
	u.PasswordHash = &hash
	return nil
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if !u.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) == nil
}
