package usecase

import (
	"context"
	"log/slog"
	"strings"

	"skilltracker/apperrors"
	"skilltracker/model"
	"skilltracker/services"
	"skilltracker/utils"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

const MinPasswordLength = 6

type UserService struct {
	Users  UserStore
	Clock  clock.Clock
	Logger *slog.Logger

	// RevealUnknownEmail makes Login answer NotFound for an unknown email
	// instead of the generic Unauthorized.
	RevealUnknownEmail bool
}

func NewUserService(users UserStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		Users:  users,
		Clock:  clock.WallClock,
		Logger: logger.With("component", "users"),
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, errors.Annotate(apperrors.ValidationError, "name is required")
	case email == "":
		return nil, errors.Annotate(apperrors.ValidationError, "email is required")
	case len(in.Password) < MinPasswordLength:
		return nil, errors.Annotatef(apperrors.ValidationError, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := services.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	now := s.Clock.Now().UTC()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// A taken email surfaces from the unique index as Conflict.
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, errors.Trace(err)
	}

	s.Logger.Info("user signed up", "user_id", user.ID.Hex())
	return user, nil
}

// Login checks the credentials and returns the account. No session or token
// is issued.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.NotFound) {
			utils.TrackAuthAttempt("error", "lookup_failed")
			return nil, errors.Trace(err)
		}
		// Spend the same work as a real check before answering.
		services.BurnPasswordCheck(password)
		utils.TrackAuthAttempt("failure", "unknown_email")
		if s.RevealUnknownEmail {
			return nil, errors.Annotatef(apperrors.NotFound, "user with email %q", email)
		}
		return nil, errors.Annotate(apperrors.Unauthorized, "invalid credentials")
	}

	if !services.ComparePasswords(user.PasswordHash, password) {
		utils.TrackAuthAttempt("failure", "bad_password")
		return nil, errors.Annotate(apperrors.Unauthorized, "invalid credentials")
	}

	utils.TrackAuthAttempt("success", "")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.Users.FindByID(ctx, id)
	return user, errors.Trace(err)
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.Users.List(ctx)
	return users, errors.Trace(err)
}

// Update applies a partial update. A new password is hashed before it is
// stored.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (*model.User, error) {
	var upd model.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errors.Annotate(apperrors.ValidationError, "name must not be blank")
		}
		upd.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, errors.Annotate(apperrors.ValidationError, "email must not be blank")
		}
		upd.Email = &email
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			return nil, errors.Annotatef(apperrors.ValidationError, "password must be at least %d characters", MinPasswordLength)
		}
		hash, err := services.HashPassword(*in.Password)
		if err != nil {
			return nil, errors.Annotate(err, "hashing password")
		}
		upd.PasswordHash = &hash
	}

	if upd.IsEmpty() {
		return nil, errors.Annotate(apperrors.ValidationError, "no fields to update")
	}

	user, err := s.Users.Update(ctx, id, upd)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.Logger.Info("user updated", "user_id", id)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Users.Delete(ctx, id); err != nil {
		return errors.Trace(err)
	}
	s.Logger.Info("user deleted", "user_id", id)
	return nil
}
