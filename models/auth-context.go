package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AuthContext is the resolved identity of the caller. It is built once per request from
// the stored user and passed explicitly to every service operation.
type AuthContext struct {
	UserID   primitive.ObjectID
	Email    string
	Role     Role
	Projects []primitive.ObjectID
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsManager reports whether the caller has project-wide privileges (Administrator or
// Project Manager).
func (a AuthContext) IsManager() bool {
	return a.Role == RoleAdmin || a.Role == RoleProjectManager
}

func (a AuthContext) Actor() *primitive.ObjectID {
	id := a.UserID
	return &id
}
