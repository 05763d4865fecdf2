package services

import (
	"context"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// budgetUsedRatio is the share of the budget reported as spent. There is no expense
// tracking, so the figure is a fixed estimate.
const budgetUsedRatio = 0.5

type ReportService struct {
	Projects repositories.ProjectStore
	Tasks    repositories.TaskStore
	Users    repositories.UserStore
	Now      Clock
}

func NewReportService(projects repositories.ProjectStore, tasks repositories.TaskStore, users repositories.UserStore, now Clock) *ReportService {
	if now == nil {
		now = SystemClock
	}
	return &ReportService{Projects: projects, Tasks: tasks, Users: users, Now: now}
}

// ProjectReport is computed from the current store state on every call.
func (s *ReportService) ProjectReport(ctx context.Context, auth models.AuthContext, projectID primitive.ObjectID) (*models.ProjectReport, error) {
	if err := requireManager(auth); err != nil {
		return nil, err
	}
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("project", err)
	}
	tasks, err := s.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, internal("failed to load project tasks", err)
	}
	members, err := s.Users.GetMany(ctx, project.Team)
	if err != nil {
		return nil, internal("failed to load project team", err)
	}

	var counts models.TaskCounts
	completedBy := map[primitive.ObjectID]int{}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskToDo:
			counts.ToDo++
		case models.TaskInProgress:
			counts.InProgress++
		case models.TaskCompleted:
			counts.Completed++
			if t.Assignee != nil {
				completedBy[*t.Assignee]++
			}
		}
	}

	byID := make(map[primitive.ObjectID]models.User, len(members))
	for _, u := range members {
		byID[u.ID] = u
	}
	team := make([]models.MemberCompletion, 0, len(project.Team))
	for _, id := range project.Team {
		mc := models.MemberCompletion{UserID: id, Completed: completedBy[id]}
		if u, ok := byID[id]; ok {
			mc.Name = u.Name
			mc.Email = u.Email
		}
		team = append(team, mc)
	}

	return &models.ProjectReport{
		ProjectID:      project.ID,
		Name:           project.Name,
		Status:         project.Status,
		Deadline:       project.Deadline,
		Progress:       project.Progress,
		Budget:         project.Budget,
		BudgetUsed:     project.Budget * budgetUsedRatio,
		TaskCounts:     counts,
		TotalTasks:     len(tasks),
		TeamCompletion: team,
		GeneratedAt:    s.Now(),
	}, nil
}
