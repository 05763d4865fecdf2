package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskService struct {
	Tasks         repositories.TaskStore
	Projects      repositories.ProjectStore
	Activity      *ActivityService
	Notifications *NotificationService
	Now           Clock
}

func NewTaskService(tasks repositories.TaskStore, projects repositories.ProjectStore, activity *ActivityService, notifications *NotificationService, now Clock) *TaskService {
	if now == nil {
		now = SystemClock
	}
	return &TaskService{
		Tasks:         tasks,
		Projects:      projects,
		Activity:      activity,
		Notifications: notifications,
		Now:           now,
	}
}

func (s *TaskService) Create(ctx context.Context, auth models.AuthContext, projectID primitive.ObjectID, in CreateTaskInput) (*models.Task, error) {
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("project", err)
	}
	if err := requireProjectRead(auth, project); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title must not be empty")
	}

	if in.Status == "" {
		in.Status = models.TaskToDo
	}
	if !in.Status.Valid() {
		return nil, invalid("unknown task status %q", in.Status)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, invalid("unknown priority %q", in.Priority)
	}

	var assignee *primitive.ObjectID
	if in.Assignee != nil {
		id, err := s.checkAssignee(project, *in.Assignee)
		if err != nil {
			return nil, err
		}
		assignee = &id
	}

	now := s.Now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		ProjectID:   projectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    assignee,
		DueDate:     utcPtr(in.DueDate),
		StoryPoints: in.StoryPoints,
		Phase:       in.Phase,
		Comments:    []models.Comment{},
		Attachments: []models.Attachment{},
		CreatedBy:   auth.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Tasks.Create(ctx, task); err != nil {
		return nil, internal("failed to create task", err)
	}

	s.Activity.Record(ctx, projectID, auth.Actor(), models.TaskCreatedDetails{
		TaskID:   task.ID.Hex(),
		Title:    task.Title,
		Assignee: hexOrNil(task.Assignee),
	})
	if assignee != nil && *assignee != auth.UserID {
		s.Notifications.Notify(ctx, *assignee, projectID, task.ID,
			fmt.Sprintf("You have been assigned to task '%s' in project '%s'", task.Title, project.Name))
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, auth models.AuthContext, id primitive.ObjectID) (*models.Task, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canReadProject(auth, project) && !task.AssignedTo(auth.UserID) {
		return nil, forbidden("not a member of this project")
	}
	return task, nil
}

func (s *TaskService) ListByProject(ctx context.Context, auth models.AuthContext, projectID primitive.ObjectID) ([]models.Task, error) {
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("project", err)
	}
	if err := requireProjectRead(auth, project); err != nil {
		return nil, err
	}
	tasks, err := s.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, internal("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) ListMine(ctx context.Context, auth models.AuthContext) ([]models.Task, error) {
	tasks, err := s.Tasks.ListByAssignee(ctx, auth.UserID)
	if err != nil {
		return nil, internal("failed to list tasks", err)
	}
	return tasks, nil
}

// ListByAssignee returns the user's tasks restricted to projects the caller can read.
func (s *TaskService) ListByAssignee(ctx context.Context, auth models.AuthContext, userID primitive.ObjectID) ([]models.Task, error) {
	tasks, err := s.Tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, internal("failed to list tasks", err)
	}
	return s.readable(ctx, auth, tasks)
}

// ListDue returns tasks due between from and to inclusive, earliest first, restricted
// to projects the caller can read.
func (s *TaskService) ListDue(ctx context.Context, auth models.AuthContext, from, to time.Time) ([]models.Task, error) {
	if to.Before(from) {
		return nil, invalid("from must not be after to")
	}
	tasks, err := s.Tasks.ListDue(ctx, from, to)
	if err != nil {
		return nil, internal("failed to list tasks", err)
	}
	return s.readable(ctx, auth, tasks)
}

// Update records Task Status Changed and Task Reassigned for those categories and one
// Task Updated for every other changed field.
func (s *TaskService) Update(ctx context.Context, auth models.AuthContext, id primitive.ObjectID, in UpdateTaskInput) (*models.Task, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEditTask(auth, project, task) {
		return nil, forbidden("not allowed to edit this task")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkNonBlank("title", in.Title); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalid("unknown task status %q", *in.Status)
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, invalid("unknown priority %q", *in.Priority)
	}
	if in.StoryPoints.Value != nil && (*in.StoryPoints.Value < 0 || *in.StoryPoints.Value > 100) {
		return nil, invalid("storyPoints must be between 0 and 100")
	}

	updated := *task
	var entries []models.ActivityDetails
	taskID := task.ID.Hex()

	changes := changeSet{}
	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != task.Title {
			changes.add("title", task.Title, title)
			updated.Title = title
		}
	}

	if in.Status != nil && *in.Status != task.Status {
		updated.Status = *in.Status
		entries = append(entries, models.TaskStatusChangedDetails{
			TaskID: taskID, Title: updated.Title, From: task.Status, To: *in.Status,
		})
	}

	var newAssignee *primitive.ObjectID
	if in.Assignee.Set {
		if in.Assignee.Value != nil {
			aid, err := ParseID("assignee", *in.Assignee.Value)
			if err != nil {
				return nil, err
			}
			newAssignee = &aid
		}
		if !equalIDPtr(newAssignee, task.Assignee) {
			if newAssignee != nil && !project.HasMember(*newAssignee) {
				return nil, invalid("assignee must be a member of the project team")
			}
			updated.Assignee = newAssignee
			entries = append(entries, models.TaskReassignedDetails{
				TaskID: taskID, Title: updated.Title, To: hexOrNil(newAssignee),
			})
		} else {
			newAssignee = nil
		}
	}

	if in.Description != nil && *in.Description != task.Description {
		changes.add("description", task.Description, *in.Description)
		updated.Description = *in.Description
	}
	if in.Priority != nil && *in.Priority != task.Priority {
		changes.add("priority", task.Priority, *in.Priority)
		updated.Priority = *in.Priority
	}
	if in.DueDate.Set && !equalTimePtr(in.DueDate.Value, task.DueDate) {
		changes.add("dueDate", timeOrNil(task.DueDate), timeOrNil(in.DueDate.Value))
		updated.DueDate = utcPtr(in.DueDate.Value)
	}
	if in.StoryPoints.Set && !equalIntPtr(in.StoryPoints.Value, task.StoryPoints) {
		changes.add("storyPoints", intOrNil(task.StoryPoints), intOrNil(in.StoryPoints.Value))
		updated.StoryPoints = in.StoryPoints.Value
	}
	if in.Phase != nil && *in.Phase != task.Phase {
		changes.add("phase", task.Phase, *in.Phase)
		updated.Phase = *in.Phase
	}
	if len(changes) > 0 {
		entries = append(entries, models.TaskUpdatedDetails{TaskID: taskID, Title: updated.Title, Changes: changes})
	}

	if len(entries) == 0 {
		return task, nil
	}

	updated.UpdatedAt = s.Now()
	if err := s.Tasks.Update(ctx, &updated); err != nil {
		return nil, storeErr("task", err)
	}

	s.Activity.Record(ctx, task.ProjectID, auth.Actor(), entries...)
	if newAssignee != nil && *newAssignee != auth.UserID {
		s.Notifications.Notify(ctx, *newAssignee, task.ProjectID, task.ID,
			fmt.Sprintf("You have been assigned to task '%s' in project '%s'", updated.Title, project.Name))
	}
	return &updated, nil
}

func (s *TaskService) Delete(ctx context.Context, auth models.AuthContext, id primitive.ObjectID) error {
	if err := requireManager(auth); err != nil {
		return err
	}
	task, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		return storeErr("task", err)
	}
	if err := s.Tasks.Delete(ctx, id); err != nil {
		return storeErr("task", err)
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", id.Hex(), auth.UserID.Hex())

	s.Activity.Record(ctx, task.ProjectID, auth.Actor(), models.TaskDeletedDetails{TaskID: id.Hex(), Title: task.Title})
	return nil
}

func (s *TaskService) AddComment(ctx context.Context, auth models.AuthContext, taskID primitive.ObjectID, in CommentInput) (*models.Comment, error) {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canEditTask(auth, project, task) {
		return nil, forbidden("not allowed to comment on this task")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, invalid("text must not be empty")
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Author:    auth.UserID,
		Text:      in.Text,
		CreatedAt: s.Now(),
	}
	if err := s.Tasks.AddComment(ctx, taskID, comment, comment.CreatedAt); err != nil {
		return nil, storeErr("task", err)
	}

	s.Activity.Record(ctx, task.ProjectID, auth.Actor(), models.CommentAddedDetails{TaskID: taskID.Hex(), Title: task.Title})
	if task.Assignee != nil && *task.Assignee != auth.UserID {
		s.Notifications.Notify(ctx, *task.Assignee, task.ProjectID, task.ID,
			fmt.Sprintf("New comment on task '%s'", task.Title))
	}
	return &comment, nil
}

func (s *TaskService) AddAttachment(ctx context.Context, auth models.AuthContext, taskID primitive.ObjectID, in AttachmentInput) (*models.Attachment, error) {
	task, project, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canEditTask(auth, project, task) {
		return nil, forbidden("not allowed to edit this task")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		ID:         primitive.NewObjectID(),
		Name:       in.Name,
		URL:        in.URL,
		MimeType:   in.MimeType,
		UploadedAt: s.Now(),
	}
	if err := s.Tasks.AddAttachment(ctx, taskID, attachment, attachment.UploadedAt); err != nil {
		return nil, storeErr("task", err)
	}

	before := len(task.Attachments)
	s.Activity.Record(ctx, task.ProjectID, auth.Actor(), models.TaskUpdatedDetails{
		TaskID:  taskID.Hex(),
		Title:   task.Title,
		Changes: changeSet{"attachments": {From: before, To: before + 1}},
	})
	return &attachment, nil
}

func (s *TaskService) load(ctx context.Context, id primitive.ObjectID) (*models.Task, *models.Project, error) {
	task, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeErr("task", err)
	}
	project, err := s.Projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, storeErr("project", err)
	}
	return task, project, nil
}

func (s *TaskService) checkAssignee(project *models.Project, hex string) (primitive.ObjectID, error) {
	id, err := ParseID("assignee", hex)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !project.HasMember(id) {
		return primitive.NilObjectID, invalid("assignee must be a member of the project team")
	}
	return id, nil
}

func (s *TaskService) readable(ctx context.Context, auth models.AuthContext, tasks []models.Task) ([]models.Task, error) {
	if auth.IsManager() {
		return tasks, nil
	}
	allowed := map[primitive.ObjectID]bool{}
	out := []models.Task{}
	for _, t := range tasks {
		ok, seen := allowed[t.ProjectID]
		if !seen {
			project, err := s.Projects.GetByID(ctx, t.ProjectID)
			switch {
			case err == nil:
				ok = project.HasMember(auth.UserID)
			case errors.Is(err, repositories.ErrNotFound):
				ok = false
			default:
				return nil, internal("failed to load project", err)
			}
			allowed[t.ProjectID] = ok
		}
		if ok || t.AssignedTo(auth.UserID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func equalIDPtr(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
