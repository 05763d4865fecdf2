package repositories

import (
	"context"
	"fmt"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuthEventRepo struct {
	EventsCollection *mongo.Collection
}

func NewAuthEventRepo(db *mongo.Database) *AuthEventRepo {
	return &AuthEventRepo{EventsCollection: db.Collection("auth_events")}
}

func (r *AuthEventRepo) Append(ctx context.Context, event *models.AuthEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if _, err := r.EventsCollection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func (r *AuthEventRepo) List(ctx context.Context) ([]models.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.EventsCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find auth events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.AuthEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode auth events: %w", err)
	}
	return events, nil
}
