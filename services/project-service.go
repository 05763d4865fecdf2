package services

import (
	"context"
	"strings"
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectService struct {
	Projects repositories.ProjectStore
	Tasks    repositories.TaskStore
	Users    repositories.UserStore
	Activity *ActivityService
	Now      Clock
}

func NewProjectService(projects repositories.ProjectStore, tasks repositories.TaskStore, users repositories.UserStore, activity *ActivityService, now Clock) *ProjectService {
	if now == nil {
		now = SystemClock
	}
	return &ProjectService{
		Projects: projects,
		Tasks:    tasks,
		Users:    users,
		Activity: activity,
		Now:      now,
	}
}

func (s *ProjectService) Create(ctx context.Context, auth models.AuthContext, in CreateProjectInput) (*models.Project, error) {
	if err := requireManager(auth); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name must not be empty")
	}

	if in.Status == "" {
		in.Status = models.ProjectActive
	}
	if !in.Status.Valid() {
		return nil, invalid("unknown project status %q", in.Status)
	}
	if in.Methodology == "" {
		in.Methodology = models.MethodologyNone
	}
	if !in.Methodology.Valid() {
		return nil, invalid("unknown methodology %q", in.Methodology)
	}

	team, err := s.resolveTeam(ctx, in.Team)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	start := now
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	if in.Deadline != nil && in.Deadline.Before(start) {
		return nil, invalid("deadline must not be before the start date")
	}

	project := &models.Project{
		ID:             primitive.NewObjectID(),
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Status:         in.Status,
		Progress:       in.Progress,
		Team:           team,
		StartDate:      start,
		Deadline:       utcPtr(in.Deadline),
		Methodology:    in.Methodology,
		SprintDuration: in.SprintDuration,
		WIPLimit:       in.WIPLimit,
		Phases:         in.Phases,
		ValueGoals:     in.ValueGoals,
		Budget:         in.Budget,
		CreatedBy:      auth.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Projects.Create(ctx, project); err != nil {
		return nil, internal("failed to create project", err)
	}
	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project '%s' (%s) created by %s", project.Name, project.ID.Hex(), auth.UserID.Hex())

	s.syncAssignments(ctx, project.ID, team, nil, now)
	s.Activity.Record(ctx, project.ID, auth.Actor(), models.CreatedDetails{
		Name:        project.Name,
		Description: project.Description,
	})
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, auth models.AuthContext, id primitive.ObjectID) (*models.Project, error) {
	project, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("project", err)
	}
	if err := requireProjectRead(auth, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns every project for Administrators and Project Managers and the caller's
// own projects for everyone else.
func (s *ProjectService) List(ctx context.Context, auth models.AuthContext) ([]models.Project, error) {
	var (
		projects []models.Project
		err      error
	)
	if auth.IsManager() {
		projects, err = s.Projects.List(ctx)
	} else {
		projects, err = s.Projects.ListByMember(ctx, auth.UserID)
	}
	if err != nil {
		return nil, internal("failed to list projects", err)
	}
	return projects, nil
}

// Update applies a partial update and records one activity entry per changed tracked
// category (status, progress, team) plus one Updated entry for every other changed
// field. Unchanged fields produce nothing.
func (s *ProjectService) Update(ctx context.Context, auth models.AuthContext, id primitive.ObjectID, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("project", err)
	}
	if !auth.IsManager() {
		if !project.HasMember(auth.UserID) {
			return nil, forbidden("not a member of this project")
		}
		if !in.OnlyStatus() {
			return nil, forbidden("collaborators may only change the project status")
		}
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkNonBlank("name", in.Name); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalid("unknown project status %q", *in.Status)
	}
	if in.Methodology != nil && !in.Methodology.Valid() {
		return nil, invalid("unknown methodology %q", *in.Methodology)
	}
	if in.Phases != nil {
		for _, p := range *in.Phases {
			if strings.TrimSpace(p) == "" {
				return nil, invalid("phases must not contain empty names")
			}
		}
	}

	var team []primitive.ObjectID
	if in.Team != nil {
		if team, err = s.resolveTeam(ctx, *in.Team); err != nil {
			return nil, err
		}
	}

	updated := *project
	var entries []models.ActivityDetails

	if in.Status != nil && *in.Status != project.Status {
		updated.Status = *in.Status
		entries = append(entries, models.StatusChangedDetails{From: project.Status, To: *in.Status})
	}
	if in.Progress != nil && *in.Progress != project.Progress {
		updated.Progress = *in.Progress
		entries = append(entries, models.ProgressUpdatedDetails{From: project.Progress, To: *in.Progress})
	}

	var added, removed []primitive.ObjectID
	if in.Team != nil {
		added, removed = diffIDs(project.Team, team)
		if len(added) > 0 || len(removed) > 0 {
			updated.Team = team
			entries = append(entries, models.TeamChangedDetails{Added: hexes(added), Removed: hexes(removed)})
		}
	}

	changes := changeSet{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != project.Name {
			changes.add("name", project.Name, name)
			updated.Name = name
		}
	}
	if in.Description != nil && *in.Description != project.Description {
		changes.add("description", project.Description, *in.Description)
		updated.Description = *in.Description
	}
	if in.StartDate != nil && !in.StartDate.Equal(project.StartDate) {
		changes.add("startDate", project.StartDate, in.StartDate.UTC())
		updated.StartDate = in.StartDate.UTC()
	}
	if in.Deadline.Set && !equalTimePtr(in.Deadline.Value, project.Deadline) {
		changes.add("deadline", timeOrNil(project.Deadline), timeOrNil(in.Deadline.Value))
		updated.Deadline = utcPtr(in.Deadline.Value)
	}
	if in.Methodology != nil && *in.Methodology != project.Methodology {
		changes.add("methodology", project.Methodology, *in.Methodology)
		updated.Methodology = *in.Methodology
	}
	if in.SprintDuration != nil && !equalIntPtr(in.SprintDuration, project.SprintDuration) {
		changes.add("sprintDuration", intOrNil(project.SprintDuration), *in.SprintDuration)
		updated.SprintDuration = in.SprintDuration
	}
	if in.WIPLimit != nil && !equalIntPtr(in.WIPLimit, project.WIPLimit) {
		changes.add("wipLimit", intOrNil(project.WIPLimit), *in.WIPLimit)
		updated.WIPLimit = in.WIPLimit
	}
	if in.Phases != nil && !equalStrings(*in.Phases, project.Phases) {
		changes.add("phases", project.Phases, *in.Phases)
		updated.Phases = *in.Phases
	}
	if in.ValueGoals != nil && *in.ValueGoals != project.ValueGoals {
		changes.add("valueGoals", project.ValueGoals, *in.ValueGoals)
		updated.ValueGoals = *in.ValueGoals
	}
	if in.Budget != nil && *in.Budget != project.Budget {
		changes.add("budget", project.Budget, *in.Budget)
		updated.Budget = *in.Budget
	}
	if len(changes) > 0 {
		entries = append(entries, models.UpdatedDetails{Changes: changes})
	}

	if updated.Deadline != nil && updated.Deadline.Before(updated.StartDate) {
		return nil, invalid("deadline must not be before the start date")
	}
	if len(entries) == 0 {
		return project, nil
	}

	updated.UpdatedAt = s.Now()
	if err := s.Projects.Update(ctx, &updated); err != nil {
		return nil, storeErr("project", err)
	}

	s.syncAssignments(ctx, updated.ID, added, removed, updated.UpdatedAt)
	s.Activity.Record(ctx, updated.ID, auth.Actor(), entries...)
	return &updated, nil
}

// Delete removes the project's tasks, then its members' assignments, then the project.
// A failing step stops the cascade with the project still present; every step can be
// repeated, so retrying the delete completes it.
func (s *ProjectService) Delete(ctx context.Context, auth models.AuthContext, id primitive.ObjectID) error {
	if err := requireManager(auth); err != nil {
		return err
	}
	project, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		return storeErr("project", err)
	}

	removedTasks, err := s.Tasks.DeleteByProject(ctx, id)
	if err != nil {
		return internal("failed to delete project tasks", err)
	}
	if err := s.Users.RemoveProject(ctx, project.Team, id, s.Now()); err != nil {
		return internal("failed to unassign project members", err)
	}
	if err := s.Projects.Delete(ctx, id); err != nil {
		return storeErr("project", err)
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted by %s with %d tasks", id.Hex(), auth.UserID.Hex(), removedTasks)

	s.Activity.Record(ctx, id, auth.Actor(), models.DeletedDetails{Name: project.Name, ID: id.Hex()})
	return nil
}

// resolveTeam parses member ids and checks that every one of them is an existing user.
func (s *ProjectService) resolveTeam(ctx context.Context, hexIDs []string) ([]primitive.ObjectID, error) {
	ids, err := parseIDs("team", hexIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []primitive.ObjectID{}, nil
	}
	users, err := s.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, internal("failed to load team members", err)
	}
	if len(users) != len(ids) {
		return nil, invalid("team contains unknown users")
	}
	return ids, nil
}

// syncAssignments mirrors team membership into the users' project sets. It runs after
// the project write and only logs failures.
func (s *ProjectService) syncAssignments(ctx context.Context, projectID primitive.ObjectID, added, removed []primitive.ObjectID, at time.Time) {
	if err := s.Users.AddProject(ctx, added, projectID, at); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_ASSIGNMENT_SYNC_FAILED, Description: Failed to add project %s to users: %v", projectID.Hex(), err)
	}
	if err := s.Users.RemoveProject(ctx, removed, projectID, at); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_ASSIGNMENT_SYNC_FAILED, Description: Failed to remove project %s from users: %v", projectID.Hex(), err)
	}
}

type changeSet map[string]models.FieldChange

func (c changeSet) add(field string, from, to any) {
	c[field] = models.FieldChange{From: from, To: to}
}

func diffIDs(before, after []primitive.ObjectID) (added, removed []primitive.ObjectID) {
	old := make(map[primitive.ObjectID]bool, len(before))
	for _, id := range before {
		old[id] = true
	}
	cur := make(map[primitive.ObjectID]bool, len(after))
	for _, id := range after {
		cur[id] = true
		if !old[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !cur[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func hexOrNil(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	h := id.Hex()
	return &h
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
