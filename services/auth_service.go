package services

import (
	"context"
	"errors"
	"log/slog"

	"food-ordering-api/apperror"
	"food-ordering-api/auth"
	"food-ordering-api/models"
	"food-ordering-api/repository"
)

type RegisterInput struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Role     models.Role    `json:"role" validate:"omitempty,oneof=ADMIN MANAGER MEMBER"`
	Country  models.Country `json:"country" validate:"omitempty,oneof=INDIA AMERICA GLOBAL"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	hasher auth.Hasher
	logger *slog.Logger

	// restrictRole rejects self-registration with any role but MEMBER.
	restrictRole bool
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, hasher auth.Hasher, restrictRole bool, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:        users,
		tokens:       tokens,
		hasher:       hasher,
		restrictRole: restrictRole,
		logger:       logger,
	}
}

// Register creates an account without authentication. The role defaults to
// MEMBER; MANAGER and MEMBER accounts need a country, ADMIN defaults to GLOBAL.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleMember
	}
	if s.restrictRole && in.Role != models.RoleMember {
		return nil, apperror.Forbidden(apperror.ReasonRegistration, "self-registration is limited to the MEMBER role")
	}
	if in.Country == "" {
		if in.Role != models.RoleAdmin {
			return nil, apperror.Validation("country is required for " + string(in.Role) + " accounts")
		}
		in.Country = models.CountryGlobal
	}

	user, err := createUser(ctx, s.users, s.hasher, in.Name, in.Email, in.Password, in.Role, in.Country)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("country", string(user.Country)),
	)
	return user, nil
}

// Login checks credentials and starts a session. The refresh token is stored
// so that a later refresh or logout can rotate or revoke it.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid email or password")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Refresh exchanges a refresh token for a new token pair. Only the most
// recently issued refresh token is accepted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthenticated("refresh token required")
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid refresh token")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, s.rejectReuse(user.ID)
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateRefreshToken(ctx, user.ID, refreshToken, refresh); err != nil {
		if errors.Is(err, repository.ErrStaleToken) {
			return nil, s.rejectReuse(user.ID)
		}
		return nil, storeErr(err, "user")
	}
	user.RefreshToken = refresh
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *AuthService) rejectReuse(userID string) error {
	s.logger.Warn("refresh token reuse rejected", slog.String("user_id", userID))
	return apperror.Unauthenticated("refresh token expired or already used")
}

// Logout revokes the caller's refresh token.
func (s *AuthService) Logout(ctx context.Context, p *models.Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if err := s.users.SetRefreshToken(ctx, p.ID, ""); err != nil {
		return storeErr(err, "user")
	}
	s.logger.Info("user logged out", slog.String("user_id", p.ID))
	return nil
}

// Authenticate resolves an access token into a Principal. The user is always
// reloaded so deletions and role changes after issuance take effect.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	if accessToken == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperror.Unauthenticated("token expired")
		}
		return nil, apperror.Unauthenticated("invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("user no longer exists")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return models.PrincipalFromUser(user), nil
}

func (s *AuthService) issueTokens(user *models.User) (access, refresh string, err error) {
	access, err = s.tokens.IssueAccessToken(user)
	if err != nil {
		return "", "", apperror.Internal("failed to issue token", err)
	}
	refresh, err = s.tokens.IssueRefreshToken(user)
	if err != nil {
		return "", "", apperror.Internal("failed to issue token", err)
	}
	return access, refresh, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, storeErr(err, "user")
	}
	user.RefreshToken = refresh
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
