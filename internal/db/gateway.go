package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultDatabase = "ToDo"

var (
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// Gateway is the only I/O boundary of the service. Collections are addressed
// by name; filters are field-equality documents and updates are operator
// documents ($set, $push, $pull).
type Gateway interface {
	Insert(ctx context.Context, collection string, document interface{}) (primitive.ObjectID, error)
	// Find decodes every matching document into results, which must be a
	// pointer to a slice. A nil projection returns whole documents.
	Find(ctx context.Context, collection string, filter bson.M, projection bson.M, results interface{}) error
	UpdateOne(ctx context.Context, collection string, filter bson.M, update bson.M) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// Indexer is implemented by gateways that can enforce single-field indexes.
type Indexer interface {
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
}
