package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BadissRH/easypm/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client and pings the primary before returning it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logging.Logger.Infof("Event ID: MONGO_CONNECTED, Description: Connected to MongoDB at %s", uri)
	return client, nil
}

// EnsureIndexes creates the indexes every query path relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "projects", Value: 1}}},
		},
		"projects": {
			{Keys: bson.D{{Key: "team", Value: 1}}},
		},
		"tasks": {
			{Keys: bson.D{{Key: "projectId", Value: 1}}},
			{Keys: bson.D{{Key: "assignee", Value: 1}}},
			{Keys: bson.D{{Key: "dueDate", Value: 1}}},
		},
		"activity_logs": {
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		"auth_events": {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		"reset_tokens": {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for collection, indexes := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}
