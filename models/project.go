package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectOnHold    ProjectStatus = "On Hold"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectArchived  ProjectStatus = "Archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

type Methodology string

const (
	MethodologyNone      Methodology = "None"
	MethodologyAgile     Methodology = "Agile"
	MethodologyKanban    Methodology = "Kanban"
	MethodologyWaterfall Methodology = "Waterfall"
	MethodologyLean      Methodology = "Lean"
)

func (m Methodology) Valid() bool {
	switch m {
	case MethodologyNone, MethodologyAgile, MethodologyKanban, MethodologyWaterfall, MethodologyLean:
		return true
	}
	return false
}

type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Status      ProjectStatus        `bson:"status" json:"status"`
	Progress    int                  `bson:"progress" json:"progress"`
	Team        []primitive.ObjectID `bson:"team" json:"team"`
	StartDate   time.Time            `bson:"startDate" json:"startDate"`
	Deadline    *time.Time           `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Methodology Methodology          `bson:"methodology" json:"methodology"`

	// Methodology-specific settings; only the ones matching Methodology are meaningful.
	SprintDuration *int     `bson:"sprintDuration,omitempty" json:"sprintDuration,omitempty"`
	WIPLimit       *int     `bson:"wipLimit,omitempty" json:"wipLimit,omitempty"`
	Phases         []string `bson:"phases,omitempty" json:"phases,omitempty"`
	ValueGoals     string   `bson:"valueGoals,omitempty" json:"valueGoals,omitempty"`

	Budget    float64            `bson:"budget" json:"budget"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Project) HasMember(userID primitive.ObjectID) bool {
	for _, id := range p.Team {
		if id == userID {
			return true
		}
	}
	return false
}
