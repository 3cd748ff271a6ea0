package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/queue"
	"github.com/charlesng35/roadboard/internal/store"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/mail"
)

// ErrUserConflict is returned when an email or username is already taken.
var ErrUserConflict = apperrors.NewBadRequest("A user with this email or username already exists.")

// CreateUserInput describes a user registered through the API.
type CreateUserInput struct {
	Name      string
	Username  string
	Email     string
	Phone     *string
	AvatarURL *string
}

// UpdateUserInput holds the profile fields to change; nil fields are left alone.
type UpdateUserInput struct {
	Name      *string
	Email     *string
	Phone     *string
	AvatarURL *string
}

// Identity is the verified profile returned by an identity provider.
type Identity struct {
	Email     string
	Name      string
	AvatarURL string
}

// UserService manages user accounts.
type UserService struct {
	users store.UserStore
	jobs  queue.Enqueuer
	log   *zap.Logger
}

// NewUserService constructs a UserService. jobs may be nil, in which case
// no notification emails are sent.
func NewUserService(stores *store.Stores, jobs queue.Enqueuer) (*UserService, error) {
	if stores == nil {
		return nil, errors.New("user service: stores are required")
	}
	return &UserService{
		users: stores.Users,
		jobs:  jobs,
		log:   logger.WithModule("users"),
	}, nil
}

// Create registers a user. Username and email are stored lower-cased.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user := &models.User{
		Name:      strings.TrimSpace(input.Name),
		Username:  strings.ToLower(strings.TrimSpace(input.Username)),
		Email:     normalizeEmail(input.Email),
		Phone:     input.Phone,
		AvatarURL: input.AvatarURL,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns every live user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError("user service", "list users", err, nil)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("user service", "get user", err, userNotFound(id))
	}
	return user, nil
}

// GetByEmail loads a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeError("user service", "get user by email", err, ErrUserNotFound)
	}
	return user, nil
}

// GetByUsername loads a user by username, case-insensitively.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, storeError("user service", "get user by username", err, ErrUserNotFound)
	}
	return user, nil
}

// Update changes profile fields of a user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		fields["email"] = normalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.AvatarURL != nil {
		fields["avatar_url"] = *input.AvatarURL
	}

	if len(fields) > 0 {
		if err := s.users.Update(ctx, id, fields); err != nil {
			if store.IsUniqueViolation(err) {
				return nil, ErrUserConflict
			}
			return nil, storeError("user service", "update user", err, userNotFound(id))
		}
	}
	return s.Get(ctx, id)
}

// Delete permanently removes a user together with its roadmap memberships
// and returns the removed record.
func (s *UserService) Delete(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.HardDelete(ctx, id); err != nil {
		return nil, storeError("user service", "delete user", err, userNotFound(id))
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return user, nil
}

// Provision returns the user owning identity.Email, creating one on first
// login. ref names the username of the inviting user; unknown referrers are
// ignored.
func (s *UserService) Provision(ctx context.Context, identity Identity, ref string) (*models.User, bool, error) {
	ctx = ensureContext(ctx)

	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, false, apperrors.NewBadRequest("identity provider did not return an email")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, storeError("user service", "lookup identity", err, nil)
	}

	username, err := uniqueUsername(ctx, SanitizeUsername(email), s.users.UsernameExists)
	if err != nil {
		return nil, false, fmt.Errorf("user service: pick username: %w", apperrors.NewDatabase("pick username", err))
	}

	user := &models.User{
		Name:     strings.TrimSpace(identity.Name),
		Username: username,
		Email:    email,
	}
	if user.Name == "" {
		user.Name = username
	}
	if avatar := strings.TrimSpace(identity.AvatarURL); avatar != "" {
		user.AvatarURL = &avatar
	}
	if ref = strings.TrimSpace(ref); ref != "" {
		referrer, err := s.users.FindByUsername(ctx, ref)
		switch {
		case err == nil:
			user.InvitedByID = &referrer.ID
		case errors.Is(err, store.ErrNotFound):
			s.log.Warn("referrer user not found", zap.String("ref", ref))
		default:
			return nil, false, storeError("user service", "lookup referrer", err, nil)
		}
	}

	if err := s.create(ctx, user); err != nil {
		return nil, false, err
	}
	s.log.Info("user provisioned", zap.String("user_id", user.ID), zap.String("username", user.Username))

	s.notifyNewUser(ctx, user)
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return ErrUserConflict
		}
		return storeError("user service", "create user", err, nil)
	}
	return nil
}

func (s *UserService) notifyNewUser(ctx context.Context, user *models.User) {
	msg := mail.Message{
		Subject: "New user signed up",
		Body: fmt.Sprintf("A new user signed up.\n\nName: %s\nUsername: %s\nEmail: %s\n",
			user.Name, user.Username, user.Email),
	}
	if err := queue.EnqueueEmail(ctx, s.jobs, msg, queue.PriorityDefault); err != nil {
		s.log.Warn("failed to enqueue new user email", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// normalizeEmail matches the form the store looks emails up by.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userNotFound(id string) *apperrors.AppError {
	return apperrors.NewNotFound(fmt.Sprintf("User not found with ID: %s", id))
}
