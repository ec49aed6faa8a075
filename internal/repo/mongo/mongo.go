// Package mongo is the default document store backend.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zudaR107/todo-app/internal/repo"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	tasksCollection    = "tasks"
)

// NewStore wires repositories over db. Close disconnects the client.
func NewStore(client *mongo.Client, db *mongo.Database, obs repo.Observer) repo.Store {
	return repo.Store{
		Users:    NewUsersRepo(db, obs),
		Projects: NewProjectsRepo(db, obs),
		Tasks:    NewTasksRepo(db, obs),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}

// EnsureIndexes creates the indexes every query relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(projectsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "dueAt", Value: 1}}},
		{Keys: bson.D{{Key: "startAt", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

func observe(obs repo.Observer, op string, fn func() error) error {
	if obs == nil {
		return fn()
	}
	return obs.ObserveDB(op, fn)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// oid parses a hex id. ok is false for anything that is not an ObjectID,
// which callers report as not found.
func oid(id string) (primitive.ObjectID, bool) {
	o, err := primitive.ObjectIDFromHex(id)
	return o, err == nil
}

func oids(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if o, ok := oid(id); ok {
			out = append(out, o)
		}
	}
	return out
}
