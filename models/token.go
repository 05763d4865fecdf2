package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TokenPurpose string

const (
	PurposePasswordReset TokenPurpose = "password_reset"
	PurposeInvite        TokenPurpose = "invite"
)

type ResetToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Token     string             `bson:"token" json:"-"`
	Purpose   TokenPurpose       `bson:"purpose" json:"purpose"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
}

func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
