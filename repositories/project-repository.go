package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProjectRepo struct {
	ProjectsCollection *mongo.Collection
}

func NewProjectRepo(db *mongo.Database) *ProjectRepo {
	return &ProjectRepo{ProjectsCollection: db.Collection("projects")}
}

func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if project.Team == nil {
		project.Team = []primitive.ObjectID{}
	}
	if _, err := r.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := r.ProjectsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	return r.find(ctx, bson.M{})
}

func (r *ProjectRepo) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return r.find(ctx, bson.M{"team": userID})
}

func (r *ProjectRepo) find(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cursor, err := r.ProjectsCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	res, err := r.ProjectsCollection.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
