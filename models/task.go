package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

// The status set spans the Agile board columns and the Waterfall phase names.
const (
	TaskBacklog        TaskStatus = "Backlog"
	TaskToDo           TaskStatus = "To Do"
	TaskInProgress     TaskStatus = "In Progress"
	TaskReview         TaskStatus = "Review"
	TaskCompleted      TaskStatus = "Completed"
	TaskRequirements   TaskStatus = "Requirements"
	TaskDesign         TaskStatus = "Design"
	TaskImplementation TaskStatus = "Implementation"
	TaskDeployment     TaskStatus = "Deployment"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskBacklog, TaskToDo, TaskInProgress, TaskReview, TaskCompleted,
		TaskRequirements, TaskDesign, TaskImplementation, TaskDeployment:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Attachment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	URL        string             `bson:"url" json:"url"`
	MimeType   string             `bson:"mimeType" json:"mimeType"`
	UploadedAt time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID  `bson:"projectId" json:"projectId"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Status      TaskStatus          `bson:"status" json:"status"`
	Priority    Priority            `bson:"priority" json:"priority"`
	Assignee    *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee"`
	DueDate     *time.Time          `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	StoryPoints *int                `bson:"storyPoints,omitempty" json:"storyPoints,omitempty"`
	Phase       string              `bson:"phase,omitempty" json:"phase,omitempty"`
	Comments    []Comment           `bson:"comments" json:"comments"`
	Attachments []Attachment        `bson:"attachments" json:"attachments"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (t *Task) AssignedTo(userID primitive.ObjectID) bool {
	return t.Assignee != nil && *t.Assignee == userID
}
