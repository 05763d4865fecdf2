package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AddProject and RemoveProject maintain the users' assigned project sets and are
	// no-ops for ids that do not exist.
	AddProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID, at time.Time) error
	RemoveProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID, at time.Time) error
}

type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	ListByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	// ListDue returns tasks whose due date lies in [from, to], earliest first.
	ListDue(ctx context.Context, from, to time.Time) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	AddComment(ctx context.Context, taskID primitive.ObjectID, comment models.Comment, at time.Time) error
	AddAttachment(ctx context.Context, taskID primitive.ObjectID, attachment models.Attachment, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
	Unassign(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error)
}

// ActivityStore is append-only. List methods return entries newest first, breaking
// createdAt ties by insertion order.
type ActivityStore interface {
	Append(ctx context.Context, entry *models.ActivityLogEntry) error
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ActivityLogEntry, error)
	ListAll(ctx context.Context) ([]models.ActivityLogEntry, error)
}

type AuthEventStore interface {
	Append(ctx context.Context, event *models.AuthEvent) error
	List(ctx context.Context) ([]models.AuthEvent, error)
}

type TokenStore interface {
	Create(ctx context.Context, token *models.ResetToken) error
	// GetByToken returns ErrNotFound for unknown tokens regardless of expiry.
	GetByToken(ctx context.Context, token string) (*models.ResetToken, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string, createdAt time.Time) error
	Delete(ctx context.Context, userID, id string, createdAt time.Time) error
}
