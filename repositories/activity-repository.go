package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityDocument is the stored shape of an entry. Details stay raw until the action is
// known, then decode into the matching payload type.
type activityDocument struct {
	ID        primitive.ObjectID  `bson:"_id"`
	ProjectID primitive.ObjectID  `bson:"projectId"`
	UserID    *primitive.ObjectID `bson:"userId"`
	Action    models.Action       `bson:"action"`
	Details   bson.Raw            `bson:"details"`
	CreatedAt time.Time           `bson:"createdAt"`
}

type ActivityRepo struct {
	ActivityCollection *mongo.Collection
}

func NewActivityRepo(db *mongo.Database) *ActivityRepo {
	return &ActivityRepo{ActivityCollection: db.Collection("activity_logs")}
}

func (r *ActivityRepo) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.Details == nil {
		return fmt.Errorf("activity entry without details")
	}
	raw, err := bson.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.Action = entry.Details.Action()

	doc := activityDocument{
		ID:        entry.ID,
		ProjectID: entry.ProjectID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   raw,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := r.ActivityCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ActivityLogEntry, error) {
	return r.find(ctx, bson.M{"projectId": projectID})
}

func (r *ActivityRepo) ListAll(ctx context.Context) ([]models.ActivityLogEntry, error) {
	return r.find(ctx, bson.M{})
}

func (r *ActivityRepo) find(ctx context.Context, filter bson.M) ([]models.ActivityLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.ActivityCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.ActivityLogEntry{}
	for cursor.Next(ctx) {
		var doc activityDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode activity entry: %w", err)
		}
		entry, err := doc.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity entries: %w", err)
	}
	return entries, nil
}

func (d activityDocument) entry() (models.ActivityLogEntry, error) {
	details, err := models.NewDetails(d.Action)
	if err != nil {
		return models.ActivityLogEntry{}, err
	}
	if err := bson.Unmarshal(d.Details, details); err != nil {
		return models.ActivityLogEntry{}, fmt.Errorf("decode %s details: %w", d.Action, err)
	}
	return models.ActivityLogEntry{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		UserID:    d.UserID,
		Action:    d.Action,
		Details:   details,
		CreatedAt: d.CreatedAt,
	}, nil
}
