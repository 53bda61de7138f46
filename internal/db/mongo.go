package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoGateway struct {
	client   *mongo.Client
	database string
	timeout  time.Duration
}

// Connect opens a client for uri, checks it with a ping and binds the gateway
// to database. Each operation gets its own timeout on top of the caller's
// context.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*MongoGateway, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, wrapErr("connect", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrapErr("ping", err)
	}

	log.Printf("connected to MongoDB, database %q", database)
	return &MongoGateway{client: client, database: database, timeout: timeout}, nil
}

func (g *MongoGateway) collection(name string) *mongo.Collection {
	return g.client.Database(g.database).Collection(name)
}

func (g *MongoGateway) Insert(ctx context.Context, collection string, document interface{}) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.collection(collection).InsertOne(ctx, document)
	if err != nil {
		return primitive.NilObjectID, wrapErr("insert "+collection, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert %s: unexpected id type %T", collection, res.InsertedID)
	}
	return id, nil
}

func (g *MongoGateway) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, results interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := options.Find()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	if filter == nil {
		filter = bson.M{}
	}

	cur, err := g.collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return wrapErr("find "+collection, err)
	}
	if err := cur.All(ctx, results); err != nil {
		return wrapErr("decode "+collection, err)
	}
	return nil
}

func (g *MongoGateway) UpdateOne(ctx context.Context, collection string, filter bson.M, update bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, wrapErr("update "+collection, err)
	}
	return res.ModifiedCount, nil
}

func (g *MongoGateway) DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, wrapErr("delete "+collection, err)
	}
	return res.DeletedCount, nil
}

func (g *MongoGateway) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	}
	if _, err := g.collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return wrapErr("index "+collection+"."+field, err)
	}
	return nil
}

func (g *MongoGateway) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

func wrapErr(op string, err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
