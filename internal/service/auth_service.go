package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/models"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

// AuthService manages accounts and sign-in.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.SessionUser, error)
	Login(ctx context.Context, req dto.LoginRequest) (policy.Identity, dto.SessionUser, error)
	Me(ctx context.Context, caller *policy.Identity) (dto.SessionUser, error)
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type authService struct {
	accounts  repository.AccountRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	hashCost  int
}

// NewAuthService constructs the auth service. hashCost is the bcrypt cost;
// values outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewAuthService(accounts repository.AccountRepository, validate *validator.Validate, activity ActivityRecorder, hashCost int, logger zerolog.Logger) AuthService {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &authService{
		accounts:  accounts,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		hashCost:  hashCost,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.SessionUser, error) {
	req.Email = repository.NormalizeEmail(req.Email)
	req.Username = cleanText(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionUser{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return dto.SessionUser{}, err
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         string(policy.RoleUser),
	}
	if err := s.accounts.Register(ctx, &user, displayNameFor(user)); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SessionUser{}, ErrEmailTaken
		}
		s.logger.Error().Err(err).Msg("failed to register account")
		return dto.SessionUser{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account registered")
	identity := identityFor(user)
	audit(ctx, s.activity, s.logger, &identity, "auth.register", "user", user.ID, nil)
	return sessionUserFor(user), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (policy.Identity, dto.SessionUser, error) {
	req.Email = repository.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return policy.Identity{}, dto.SessionUser{}, err
	}

	user, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Identity{}, dto.SessionUser{}, ErrInvalidCredentials
		}
		return policy.Identity{}, dto.SessionUser{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return policy.Identity{}, dto.SessionUser{}, ErrInvalidCredentials
	}

	if _, err := s.accounts.SyncPerson(ctx, &user, displayNameFor(user)); err != nil {
		s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("failed to link account to person")
		return policy.Identity{}, dto.SessionUser{}, err
	}

	return identityFor(user), sessionUserFor(user), nil
}

func (s *authService) Me(ctx context.Context, caller *policy.Identity) (dto.SessionUser, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return dto.SessionUser{}, err
	}

	user, err := s.accounts.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionUser{}, policy.ErrUnauthenticated
		}
		return dto.SessionUser{}, err
	}
	return sessionUserFor(user), nil
}

// EnsureAdmin creates an admin account for email when none exists yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return false, err
	}

	user := models.User{
		Email:        email,
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         string(policy.RoleAdmin),
	}
	created, err := s.accounts.EnsureAdmin(ctx, &user, email)
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info().Uint("user_id", user.ID).Msg("bootstrap admin created")
	}
	return created, nil
}

func displayNameFor(user models.User) string {
	if name := strings.TrimSpace(user.Username); name != "" {
		return name
	}
	return user.Email
}

func identityFor(user models.User) policy.Identity {
	identity := policy.Identity{
		UserID: user.ID,
		Role:   policy.RoleUser,
		Email:  user.Email,
	}
	if role, err := policy.ParseRole(user.Role); err == nil {
		identity.Role = role
	}
	if user.PersonID != nil {
		identity.PersonID = *user.PersonID
	}
	return identity
}

func sessionUserFor(user models.User) dto.SessionUser {
	identity := identityFor(user)
	return dto.SessionUser{
		UserID:   user.ID,
		PersonID: identity.PersonID,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(identity.Role),
	}
}
