package services

import (
	"context"
	"log/slog"

	"food-ordering-api/apperror"
	"food-ordering-api/auth"
	"food-ordering-api/models"
	"food-ordering-api/policy"
	"food-ordering-api/repository"
)

type CreateManagerInput struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Country  models.Country `json:"country" validate:"required,oneof=INDIA AMERICA"`
}

type UserService struct {
	users  repository.UserRepository
	hasher auth.Hasher
	policy *policy.Engine
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, hasher auth.Hasher, engine *policy.Engine, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, hasher: hasher, policy: engine, logger: logger}
}

// CreateManager creates a MANAGER account; the role is never taken from input.
func (s *UserService) CreateManager(ctx context.Context, p *models.Principal, in CreateManagerInput) (*models.User, error) {
	if err := s.policy.Authorize(p, policy.ActionManageUsers, policy.Target{}); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := createUser(ctx, s.users, s.hasher, in.Name, in.Email, in.Password, models.RoleManager, in.Country)
	if err != nil {
		return nil, err
	}
	s.logger.Info("manager created",
		slog.String("user_id", user.ID),
		slog.String("country", string(user.Country)),
		slog.String("actor_id", p.ID),
	)
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, p *models.Principal) ([]models.User, error) {
	if err := s.policy.Authorize(p, policy.ActionManageUsers, policy.Target{}); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr(err, "users")
	}
	return users, nil
}

// DeleteUser removes an account. Nobody may delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, p *models.Principal, targetID string) error {
	if err := s.policy.Authorize(p, policy.ActionManageUsers, policy.Target{}); err != nil {
		return err
	}
	if targetID == p.ID {
		return apperror.Forbidden(apperror.ReasonSelfDelete, "you cannot delete your own account")
	}
	if err := parseID(targetID, "user"); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return storeErr(err, "user")
	}
	s.logger.Info("user deleted", slog.String("user_id", targetID), slog.String("actor_id", p.ID))
	return nil
}

func (s *UserService) Profile(ctx context.Context, p *models.Principal) (*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}
