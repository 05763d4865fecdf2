package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TokenRepo struct {
	TokensCollection *mongo.Collection
}

func NewTokenRepo(db *mongo.Database) *TokenRepo {
	return &TokenRepo{TokensCollection: db.Collection("reset_tokens")}
}

func (r *TokenRepo) Create(ctx context.Context, token *models.ResetToken) error {
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	if _, err := r.TokensCollection.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*models.ResetToken, error) {
	var t models.ResetToken
	if err := r.TokensCollection.FindOne(ctx, bson.M{"token": token}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.TokensCollection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepo) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.TokensCollection.DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}
