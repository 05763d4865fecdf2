package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthEventKind string

const (
	AuthLoginSuccess  AuthEventKind = "Login Success"
	AuthLoginFailure  AuthEventKind = "Login Failure"
	AuthLogout        AuthEventKind = "Logout"
	AuthPasswordReset AuthEventKind = "Password Reset"
)

// AuthEvent is an append-only record of an authentication attempt or credential change.
type AuthEvent struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind          AuthEventKind       `bson:"kind" json:"kind"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Email         string              `bson:"email" json:"email"`
	SourceAddress string              `bson:"sourceAddress" json:"sourceAddress"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}
