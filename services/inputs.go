package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs struct tag validation and reports the first failure as a
// validation error.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("invalid input")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", fe.Field())
	case "email":
		return invalid("%s must be a valid email address", fe.Field())
	case "url":
		return invalid("%s must be a valid URL", fe.Field())
	case "max":
		return invalid("%s must be at most %s", fe.Field(), fe.Param())
	case "min", "gte":
		return invalid("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return invalid("%s must be at most %s", fe.Field(), fe.Param())
	}
	return invalid("%s is invalid", fe.Field())
}

// Optional distinguishes a JSON field that is absent (Set false) from one that is
// explicitly null (Set true, Value nil).
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func ParseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, invalid("%s is not a valid id", field)
	}
	return id, nil
}

func parseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	seen := map[primitive.ObjectID]bool{}
	for _, h := range hexes {
		id, err := ParseID(field, h)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type CreateProjectInput struct {
	Name           string               `json:"name" validate:"required,max=200"`
	Description    string               `json:"description" validate:"max=5000"`
	Status         models.ProjectStatus `json:"status"`
	Progress       int                  `json:"progress" validate:"gte=0,lte=100"`
	Team           []string             `json:"team"`
	StartDate      *time.Time           `json:"startDate"`
	Deadline       *time.Time           `json:"deadline"`
	Methodology    models.Methodology   `json:"methodology"`
	SprintDuration *int                 `json:"sprintDuration" validate:"omitempty,min=1,max=90"`
	WIPLimit       *int                 `json:"wipLimit" validate:"omitempty,min=1"`
	Phases         []string             `json:"phases" validate:"omitempty,dive,required,max=100"`
	ValueGoals     string               `json:"valueGoals" validate:"max=2000"`
	Budget         float64              `json:"budget" validate:"gte=0"`
}

// UpdateProjectInput is a partial update; nil fields are left untouched.
type UpdateProjectInput struct {
	Name           *string               `json:"name" validate:"omitempty,max=200"`
	Description    *string               `json:"description" validate:"omitempty,max=5000"`
	Status         *models.ProjectStatus `json:"status"`
	Progress       *int                  `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Team           *[]string             `json:"team"`
	StartDate      *time.Time            `json:"startDate"`
	Deadline       Optional[time.Time]   `json:"deadline"`
	Methodology    *models.Methodology   `json:"methodology"`
	SprintDuration *int                  `json:"sprintDuration" validate:"omitempty,min=1,max=90"`
	WIPLimit       *int                  `json:"wipLimit" validate:"omitempty,min=1"`
	Phases         *[]string             `json:"phases"`
	ValueGoals     *string               `json:"valueGoals" validate:"omitempty,max=2000"`
	Budget         *float64              `json:"budget" validate:"omitempty,gte=0"`
}

// OnlyStatus reports whether the update touches nothing but the status.
func (in UpdateProjectInput) OnlyStatus() bool {
	return in.Name == nil && in.Description == nil && in.Progress == nil && in.Team == nil &&
		in.StartDate == nil && !in.Deadline.Set && in.Methodology == nil &&
		in.SprintDuration == nil && in.WIPLimit == nil && in.Phases == nil &&
		in.ValueGoals == nil && in.Budget == nil
}

type CreateTaskInput struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Status      models.TaskStatus `json:"status"`
	Priority    models.Priority   `json:"priority"`
	Assignee    *string           `json:"assignee"`
	DueDate     *time.Time        `json:"dueDate"`
	StoryPoints *int              `json:"storyPoints" validate:"omitempty,min=0,max=100"`
	Phase       string            `json:"phase" validate:"max=100"`
}

type UpdateTaskInput struct {
	Title       *string             `json:"title" validate:"omitempty,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Status      *models.TaskStatus  `json:"status"`
	Priority    *models.Priority    `json:"priority"`
	Assignee    Optional[string]    `json:"assignee"`
	DueDate     Optional[time.Time] `json:"dueDate"`
	StoryPoints Optional[int]       `json:"storyPoints"`
	Phase       *string             `json:"phase" validate:"omitempty,max=100"`
}

type CommentInput struct {
	Text string `json:"text" validate:"required,max=5000"`
}

type AttachmentInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	URL      string `json:"url" validate:"required,url"`
	MimeType string `json:"mimeType" validate:"max=255"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type InviteInput struct {
	Name  string      `json:"name" validate:"required,max=100"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenPasswordInput is used by both password reset and invite acceptance.
type TokenPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type ChangeRoleInput struct {
	Role models.Role `json:"role"`
}

type NotificationRefInput struct {
	NotificationID string    `json:"notificationId" validate:"required"`
	CreatedAt      time.Time `json:"createdAt" validate:"required"`
}

func checkNonBlank(field string, v *string) error {
	if v != nil && strings.TrimSpace(*v) == "" {
		return invalid("%s must not be empty", field)
	}
	return nil
}
