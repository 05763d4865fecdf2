package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepo struct {
	TasksCollection *mongo.Collection
}

func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{TasksCollection: db.Collection("tasks")}
}

func (r *TaskRepo) Create(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}
	if _, err := r.TasksCollection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := r.TasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return r.find(ctx, bson.M{"projectId": projectID}, bson.D{{Key: "createdAt", Value: 1}})
}

func (r *TaskRepo) ListByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return r.find(ctx, bson.M{"assignee": userID}, bson.D{{Key: "createdAt", Value: 1}})
}

func (r *TaskRepo) ListDue(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	filter := bson.M{"dueDate": bson.M{"$gte": from, "$lte": to}}
	return r.find(ctx, filter, bson.D{{Key: "dueDate", Value: 1}})
}

func (r *TaskRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Task, error) {
	cursor, err := r.TasksCollection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, task *models.Task) error {
	res, err := r.TasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) AddComment(ctx context.Context, taskID primitive.ObjectID, comment models.Comment, at time.Time) error {
	return r.push(ctx, taskID, "comments", comment, at)
}

func (r *TaskRepo) AddAttachment(ctx context.Context, taskID primitive.ObjectID, attachment models.Attachment, at time.Time) error {
	return r.push(ctx, taskID, "attachments", attachment, at)
}

func (r *TaskRepo) push(ctx context.Context, taskID primitive.ObjectID, field string, value any, at time.Time) error {
	res, err := r.TasksCollection.UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{
			"$push": bson.M{field: value},
			"$set":  bson.M{"updatedAt": at.UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("push %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.TasksCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.TasksCollection.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *TaskRepo) Unassign(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	res, err := r.TasksCollection.UpdateMany(ctx,
		bson.M{"assignee": userID},
		bson.M{
			"$unset": bson.M{"assignee": ""},
			"$set":   bson.M{"updatedAt": at.UTC()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("unassign tasks: %w", err)
	}
	return res.ModifiedCount, nil
}
