package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/metrics"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenTTL  = time.Hour
	inviteTokenTTL = 72 * time.Hour
)

type UserService struct {
	Users      repositories.UserStore
	Projects   repositories.ProjectStore
	Tasks      repositories.TaskStore
	Tokens     repositories.TokenStore
	AuthEvents repositories.AuthEventStore
	Activity   *ActivityService
	JWT        *JWTService
	Mailer     Mailer

	BlackList   map[string]bool
	BcryptCost  int
	FrontendURL string
	Now         Clock
}

func NewUserService(
	users repositories.UserStore,
	projects repositories.ProjectStore,
	tasks repositories.TaskStore,
	tokens repositories.TokenStore,
	authEvents repositories.AuthEventStore,
	activity *ActivityService,
	jwtService *JWTService,
	mailer Mailer,
) *UserService {
	return &UserService{
		Users:      users,
		Projects:   projects,
		Tasks:      tasks,
		Tokens:     tokens,
		AuthEvents: authEvents,
		Activity:   activity,
		JWT:        jwtService,
		Mailer:     mailer,
		BlackList:  map[string]bool{},
		BcryptCost: bcrypt.DefaultCost,
		Now:        SystemClock,
	}
}

func (s *UserService) Login(ctx context.Context, in LoginInput, source string) (string, *models.User, error) {
	if err := validateInput(in); err != nil {
		return "", nil, err
	}

	user, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, internal("failed to load user", err)
		}
		s.recordAuthEvent(ctx, models.AuthLoginFailure, nil, in.Email, source)
		return "", nil, unauthenticated("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		s.recordAuthEvent(ctx, models.AuthLoginFailure, &user.ID, user.Email, source)
		return "", nil, unauthenticated("invalid email or password")
	}
	if !user.IsActive {
		s.recordAuthEvent(ctx, models.AuthLoginFailure, &user.ID, user.Email, source)
		return "", nil, unauthenticated("account is not active")
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return "", nil, internal("failed to sign token", err)
	}
	s.recordAuthEvent(ctx, models.AuthLoginSuccess, &user.ID, user.Email, source)
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.ID.Hex())
	return token, user, nil
}

// Logout only records the event; tokens are stateless and expire on their own.
func (s *UserService) Logout(ctx context.Context, auth models.AuthContext, source string) {
	s.recordAuthEvent(ctx, models.AuthLogout, auth.Actor(), auth.Email, source)
}

// Authenticate turns a bearer token into an AuthContext built from the stored user, so
// role changes and deactivation apply to tokens issued before them.
func (s *UserService) Authenticate(ctx context.Context, tokenStr string) (models.AuthContext, error) {
	claims, err := s.JWT.ValidateToken(tokenStr)
	if err != nil {
		return models.AuthContext{}, unauthenticated("invalid token")
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return models.AuthContext{}, unauthenticated("invalid token")
	}
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.AuthContext{}, unauthenticated("user no longer exists")
		}
		return models.AuthContext{}, internal("failed to load user", err)
	}
	if !user.IsActive {
		return models.AuthContext{}, unauthenticated("account is not active")
	}
	return models.AuthContext{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Projects: user.Projects,
	}, nil
}

// ForgotPassword never reveals whether the email belongs to an account.
func (s *UserService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	user, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.Infof("Event ID: PASSWORD_RESET_UNKNOWN_EMAIL, Description: Reset requested for unknown email")
			return nil
		}
		return internal("failed to load user", err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := s.issueToken(ctx, user.ID, models.PurposePasswordReset, resetTokenTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.FrontendURL, "/"), token)
	s.sendMail(ctx, user.Email, "EasyPM password reset",
		fmt.Sprintf("<p>Use the link below to reset your password. It is valid for one hour.</p><p><a href=\"%s\">%s</a></p>", link, link))
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, in TokenPasswordInput, source string) error {
	if err := validateInput(in); err != nil {
		return err
	}
	token, err := s.consumableToken(ctx, in.Token, models.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := ValidatePassword(in.Password, s.BlackList); err != nil {
		return err
	}
	user, err := s.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return storeErr("user", err)
	}
	if err := s.setPassword(ctx, user, in.Password); err != nil {
		return err
	}
	s.deleteToken(ctx, token)
	s.recordAuthEvent(ctx, models.AuthPasswordReset, &user.ID, user.Email, source)
	return nil
}

// Invite creates an inactive account and mails an activation link.
func (s *UserService) Invite(ctx context.Context, auth models.AuthContext, in InviteInput) (*models.User, error) {
	if err := requireAdmin(auth); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleCollaborator
	}
	if !in.Role.Valid() {
		return nil, invalid("unknown role %q", in.Role)
	}

	now := s.Now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      in.Role,
		Projects:  []primitive.ObjectID{},
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("email is already in use")
		}
		return nil, internal("failed to create user", err)
	}

	token, err := s.issueToken(ctx, user.ID, models.PurposeInvite, inviteTokenTTL)
	if err != nil {
		return nil, err
	}
	link := fmt.Sprintf("%s/accept-invite?token=%s", strings.TrimRight(s.FrontendURL, "/"), token)
	s.sendMail(ctx, user.Email, "You have been invited to EasyPM",
		fmt.Sprintf("<p>Hello %s,</p><p>You were invited to EasyPM as %s. Set your password here within 72 hours:</p><p><a href=\"%s\">%s</a></p>", user.Name, user.Role, link, link))

	logging.Logger.Infof("Event ID: USER_INVITED, Description: User %s invited by %s as %s", user.ID.Hex(), auth.UserID.Hex(), user.Role)
	return user, nil
}

func (s *UserService) AcceptInvite(ctx context.Context, in TokenPasswordInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	token, err := s.consumableToken(ctx, in.Token, models.PurposeInvite)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password, s.BlackList); err != nil {
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, storeErr("user", err)
	}
	user.IsActive = true
	if err := s.setPassword(ctx, user, in.Password); err != nil {
		return nil, err
	}
	s.deleteToken(ctx, token)
	return user, nil
}

func (s *UserService) Me(ctx context.Context, auth models.AuthContext) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, auth.UserID)
	if err != nil {
		return nil, storeErr("user", err)
	}
	return user, nil
}

func (s *UserService) UpdateMe(ctx context.Context, auth models.AuthContext, in UpdateProfileInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name must not be empty")
	}
	user, err := s.Users.GetByID(ctx, auth.UserID)
	if err != nil {
		return nil, storeErr("user", err)
	}
	user.Name = name
	user.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, user); err != nil {
		return nil, storeErr("user", err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, auth models.AuthContext, in ChangePasswordInput, source string) error {
	if err := validateInput(in); err != nil {
		return err
	}
	user, err := s.Users.GetByID(ctx, auth.UserID)
	if err != nil {
		return storeErr("user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return invalid("current password is incorrect")
	}
	if err := ValidatePassword(in.NewPassword, s.BlackList); err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, in.NewPassword); err != nil {
		return err
	}
	s.recordAuthEvent(ctx, models.AuthPasswordReset, &user.ID, user.Email, source)
	return nil
}

func (s *UserService) List(ctx context.Context, auth models.AuthContext) ([]models.User, error) {
	if err := requireManager(auth); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, internal("failed to list users", err)
	}
	return users, nil
}

func (s *UserService) ChangeRole(ctx context.Context, auth models.AuthContext, id primitive.ObjectID, in ChangeRoleInput) (*models.User, error) {
	if err := requireAdmin(auth); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, invalid("unknown role %q", in.Role)
	}
	if id == auth.UserID {
		return nil, invalid("administrators cannot change their own role")
	}
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("user", err)
	}
	if user.Role == in.Role {
		return user, nil
	}
	user.Role = in.Role
	user.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, user); err != nil {
		return nil, storeErr("user", err)
	}
	logging.Logger.Infof("Event ID: USER_ROLE_CHANGED, Description: User %s role set to %s by %s", id.Hex(), in.Role, auth.UserID.Hex())
	return user, nil
}

// Delete unassigns the user's tasks, removes the user from every project team and then
// deletes the account. Each unassigned task gets a Task Reassigned entry and each affected
// project a Team Changed entry. Activity entries that name the user are kept.
func (s *UserService) Delete(ctx context.Context, auth models.AuthContext, id primitive.ObjectID) error {
	if err := requireAdmin(auth); err != nil {
		return err
	}
	if id == auth.UserID {
		return invalid("administrators cannot delete their own account")
	}
	if _, err := s.Users.GetByID(ctx, id); err != nil {
		return storeErr("user", err)
	}

	projects, err := s.Projects.ListByMember(ctx, id)
	if err != nil {
		return internal("failed to load user projects", err)
	}
	assigned, err := s.Tasks.ListByAssignee(ctx, id)
	if err != nil {
		return internal("failed to load user tasks", err)
	}

	now := s.Now()
	if _, err := s.Tasks.Unassign(ctx, id, now); err != nil {
		return internal("failed to unassign user tasks", err)
	}
	for i := range projects {
		p := &projects[i]
		team := make([]primitive.ObjectID, 0, len(p.Team))
		for _, m := range p.Team {
			if m != id {
				team = append(team, m)
			}
		}
		p.Team = team
		p.UpdatedAt = now
		if err := s.Projects.Update(ctx, p); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return internal("failed to remove user from project team", err)
		}
	}
	if err := s.Tokens.DeleteByUser(ctx, id); err != nil {
		return internal("failed to delete user tokens", err)
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return storeErr("user", err)
	}
	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted by %s", id.Hex(), auth.UserID.Hex())

	for _, t := range assigned {
		s.Activity.Record(ctx, t.ProjectID, auth.Actor(), models.TaskReassignedDetails{
			TaskID: t.ID.Hex(), Title: t.Title, To: nil,
		})
	}
	for _, p := range projects {
		s.Activity.Record(ctx, p.ID, auth.Actor(), models.TeamChangedDetails{
			Added:   []string{},
			Removed: []string{id.Hex()},
		})
	}
	return nil
}

func (s *UserService) ListAuthEvents(ctx context.Context, auth models.AuthContext) ([]models.AuthEvent, error) {
	if err := requireAdmin(auth); err != nil {
		return nil, err
	}
	events, err := s.AuthEvents.List(ctx)
	if err != nil {
		return nil, internal("failed to list auth events", err)
	}
	return events, nil
}

// EnsureAdmin creates an active Administrator with the given credentials unless a user
// with that email already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	if err := ValidatePassword(password, s.BlackList); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := s.Now()
	admin := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  string(hash),
		Role:      models.RoleAdmin,
		Projects:  []primitive.ObjectID{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.Create(ctx, admin); err != nil && !errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("create admin: %w", err)
	}
	logging.Logger.Infof("Event ID: ADMIN_BOOTSTRAPPED, Description: Administrator account %s created", admin.Email)
	return nil
}

func (s *UserService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return internal("failed to hash password", err)
	}
	user.Password = string(hash)
	user.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, user); err != nil {
		return storeErr("user", err)
	}
	return nil
}

func (s *UserService) issueToken(ctx context.Context, userID primitive.ObjectID, purpose models.TokenPurpose, ttl time.Duration) (string, error) {
	value := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	token := &models.ResetToken{
		UserID:    userID,
		Token:     value,
		Purpose:   purpose,
		ExpiresAt: s.Now().Add(ttl),
	}
	if err := s.Tokens.Create(ctx, token); err != nil {
		return "", internal("failed to store token", err)
	}
	return value, nil
}

// consumableToken returns the token if it exists, matches purpose and has not expired.
// Expired tokens are removed.
func (s *UserService) consumableToken(ctx context.Context, value string, purpose models.TokenPurpose) (*models.ResetToken, error) {
	token, err := s.Tokens.GetByToken(ctx, value)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalid("invalid or expired token")
		}
		return nil, internal("failed to load token", err)
	}
	if token.Purpose != purpose {
		return nil, invalid("invalid or expired token")
	}
	if token.Expired(s.Now()) {
		s.deleteToken(ctx, token)
		return nil, invalid("invalid or expired token")
	}
	return token, nil
}

func (s *UserService) deleteToken(ctx context.Context, token *models.ResetToken) {
	if err := s.Tokens.Delete(ctx, token.ID); err != nil {
		logging.Logger.Errorf("Event ID: TOKEN_DELETE_FAILED, Description: Failed to delete token %s: %v", token.ID.Hex(), err)
	}
}

func (s *UserService) sendMail(ctx context.Context, to, subject, body string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, to, subject, body); err != nil {
		logging.Logger.Errorf("Event ID: EMAIL_SEND_FAILED, Description: Failed to send '%s' to %s: %v", subject, to, err)
	}
}

func (s *UserService) recordAuthEvent(ctx context.Context, kind models.AuthEventKind, userID *primitive.ObjectID, email, source string) {
	metrics.RecordAuthEvent(string(kind))
	event := &models.AuthEvent{
		Kind:          kind,
		UserID:        userID,
		Email:         strings.ToLower(email),
		SourceAddress: source,
		CreatedAt:     s.Now(),
	}
	if err := s.AuthEvents.Append(ctx, event); err != nil {
		logging.Logger.Errorf("Event ID: AUTH_EVENT_APPEND_FAILED, Description: Failed to record %s for %s: %v", kind, email, err)
	}
}
