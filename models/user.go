package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin          Role = "Administrator"
	RoleProjectManager Role = "Project Manager"
	RoleCollaborator   Role = "Collaborator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleCollaborator:
		return true
	}
	return false
}

// User is stored with a lowercase email; lookups lowercase their input before matching.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email"`
	Password  string               `bson:"password" json:"-"`
	Role      Role                 `bson:"role" json:"role"`
	Projects  []primitive.ObjectID `bson:"projects" json:"projects"`
	IsActive  bool                 `bson:"isActive" json:"isActive"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the display form of a user embedded in other responses.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
