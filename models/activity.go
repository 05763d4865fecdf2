package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is the closed set of activity kinds. The string values are persisted and
// returned to clients as-is.
type Action string

const (
	ActionCreated           Action = "Created"
	ActionUpdated           Action = "Updated"
	ActionDeleted           Action = "Deleted"
	ActionStatusChanged     Action = "Status Changed"
	ActionTeamChanged       Action = "Team Changed"
	ActionProgressUpdated   Action = "Progress Updated"
	ActionTaskCreated       Action = "Task Created"
	ActionTaskUpdated       Action = "Task Updated"
	ActionTaskStatusChanged Action = "Task Status Changed"
	ActionTaskReassigned    Action = "Task Reassigned"
	ActionTaskDeleted       Action = "Task Deleted"
	ActionCommentAdded      Action = "Comment Added"
)

// Actions lists every valid action in declaration order.
var Actions = []Action{
	ActionCreated,
	ActionUpdated,
	ActionDeleted,
	ActionStatusChanged,
	ActionTeamChanged,
	ActionProgressUpdated,
	ActionTaskCreated,
	ActionTaskUpdated,
	ActionTaskStatusChanged,
	ActionTaskReassigned,
	ActionTaskDeleted,
	ActionCommentAdded,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ActivityDetails is implemented by exactly one payload type per Action. The action of
// an entry is always taken from its details, so an entry cannot carry a payload of the
// wrong shape.
type ActivityDetails interface {
	Action() Action
}

// FieldChange records the before and after value of a single field.
type FieldChange struct {
	From any `bson:"from" json:"from"`
	To   any `bson:"to" json:"to"`
}

type CreatedDetails struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
}

type UpdatedDetails struct {
	Changes map[string]FieldChange `bson:"changes" json:"changes"`
}

type DeletedDetails struct {
	Name string `bson:"name" json:"name"`
	ID   string `bson:"id" json:"id"`
}

type StatusChangedDetails struct {
	From ProjectStatus `bson:"from" json:"from"`
	To   ProjectStatus `bson:"to" json:"to"`
}

type TeamChangedDetails struct {
	Added   []string `bson:"added" json:"added"`
	Removed []string `bson:"removed" json:"removed"`
}

type ProgressUpdatedDetails struct {
	From int `bson:"from" json:"from"`
	To   int `bson:"to" json:"to"`
}

type TaskCreatedDetails struct {
	TaskID   string  `bson:"taskId" json:"taskId"`
	Title    string  `bson:"title" json:"title"`
	Assignee *string `bson:"assignee" json:"assignee"`
}

type TaskUpdatedDetails struct {
	TaskID  string                 `bson:"taskId" json:"taskId"`
	Title   string                 `bson:"title" json:"title"`
	Changes map[string]FieldChange `bson:"changes" json:"changes"`
}

type TaskStatusChangedDetails struct {
	TaskID string     `bson:"taskId" json:"taskId"`
	Title  string     `bson:"title" json:"title"`
	From   TaskStatus `bson:"from" json:"from"`
	To     TaskStatus `bson:"to" json:"to"`
}

type TaskReassignedDetails struct {
	TaskID string  `bson:"taskId" json:"taskId"`
	Title  string  `bson:"title" json:"title"`
	To     *string `bson:"to" json:"to"`
}

type TaskDeletedDetails struct {
	TaskID string `bson:"taskId" json:"taskId"`
	Title  string `bson:"title" json:"title"`
}

type CommentAddedDetails struct {
	TaskID string `bson:"taskId" json:"taskId"`
	Title  string `bson:"title" json:"title"`
}

func (CreatedDetails) Action() Action           { return ActionCreated }
func (UpdatedDetails) Action() Action           { return ActionUpdated }
func (DeletedDetails) Action() Action           { return ActionDeleted }
func (StatusChangedDetails) Action() Action     { return ActionStatusChanged }
func (TeamChangedDetails) Action() Action       { return ActionTeamChanged }
func (ProgressUpdatedDetails) Action() Action   { return ActionProgressUpdated }
func (TaskCreatedDetails) Action() Action       { return ActionTaskCreated }
func (TaskUpdatedDetails) Action() Action       { return ActionTaskUpdated }
func (TaskStatusChangedDetails) Action() Action { return ActionTaskStatusChanged }
func (TaskReassignedDetails) Action() Action    { return ActionTaskReassigned }
func (TaskDeletedDetails) Action() Action       { return ActionTaskDeleted }
func (CommentAddedDetails) Action() Action      { return ActionCommentAdded }

// NewDetails returns an empty payload of the type that belongs to the action, ready to
// be decoded into.
func NewDetails(a Action) (ActivityDetails, error) {
	switch a {
	case ActionCreated:
		return &CreatedDetails{}, nil
	case ActionUpdated:
		return &UpdatedDetails{}, nil
	case ActionDeleted:
		return &DeletedDetails{}, nil
	case ActionStatusChanged:
		return &StatusChangedDetails{}, nil
	case ActionTeamChanged:
		return &TeamChangedDetails{}, nil
	case ActionProgressUpdated:
		return &ProgressUpdatedDetails{}, nil
	case ActionTaskCreated:
		return &TaskCreatedDetails{}, nil
	case ActionTaskUpdated:
		return &TaskUpdatedDetails{}, nil
	case ActionTaskStatusChanged:
		return &TaskStatusChangedDetails{}, nil
	case ActionTaskReassigned:
		return &TaskReassignedDetails{}, nil
	case ActionTaskDeleted:
		return &TaskDeletedDetails{}, nil
	case ActionCommentAdded:
		return &CommentAddedDetails{}, nil
	}
	return nil, fmt.Errorf("unknown activity action %q", a)
}

type ActivityLogEntry struct {
	ID        primitive.ObjectID  `json:"id"`
	ProjectID primitive.ObjectID  `json:"projectId"`
	UserID    *primitive.ObjectID `json:"userId"`
	Action    Action              `json:"action"`
	Details   ActivityDetails     `json:"details"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ActivityLogView is an entry with its actor resolved for display. User is nil for
// system entries and for actors that no longer exist.
type ActivityLogView struct {
	ActivityLogEntry
	User *UserSummary `json:"user"`
}
