package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskCounts covers only the three generic board columns. Tasks in methodology-specific
// statuses are not counted in any bucket; TotalTasks on the report includes them.
type TaskCounts struct {
	ToDo       int `json:"toDo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

type MemberCompletion struct {
	UserID    primitive.ObjectID `json:"userId"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Completed int                `json:"completed"`
}

type ProjectReport struct {
	ProjectID      primitive.ObjectID `json:"projectId"`
	Name           string             `json:"name"`
	Status         ProjectStatus      `json:"status"`
	Deadline       *time.Time         `json:"deadline"`
	Progress       int                `json:"progress"`
	Budget         float64            `json:"budget"`
	BudgetUsed     float64            `json:"budgetUsed"`
	TaskCounts     TaskCounts         `json:"taskCounts"`
	TotalTasks     int                `json:"totalTasks"`
	TeamCompletion []MemberCompletion `json:"teamCompletion"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}
