package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/civic-reports/internal/auth"
	"github.com/spec-kit/civic-reports/internal/config"
	"github.com/spec-kit/civic-reports/internal/domain"
	"github.com/spec-kit/civic-reports/internal/repository"
	apperrors "github.com/spec-kit/civic-reports/pkg/util/errorutil"
)

// AuthService coordinates registration and sign-in flows.
type AuthService struct {
	users      repository.UserRepository
	limiter    auth.AttemptLimiter
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Limiter  auth.AttemptLimiter
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = auth.NopAttemptLimiter{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		limiter:    limiter,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a citizen account and issues its first token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.createUser(ctx, email, password, domain.RoleCitizen)
	if err != nil {
		return nil, domain.Token{}, err
	}
	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Authenticate verifies credentials and issues a token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	email = strings.TrimSpace(email)

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewServiceUnavailable(err)
	}
	if !allowed {
		return nil, domain.Token{}, apperrors.NewTooManyRequests("too many failed sign-in attempts, try again later", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Token{}, apperrors.NewNotFound("Email", nil)
		}
		return nil, domain.Token{}, apperrors.NewServiceUnavailable(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		_ = s.limiter.Fail(ctx, email)
		s.logger.Info("sign-in rejected", zap.String("user_id", user.ID))
		return nil, domain.Token{}, apperrors.NewUnauthorized("Incorrect password")
	}
	_ = s.limiter.Reset(ctx, email)

	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// EnsureCouncilAccount creates a council account unless the email is taken.
// The boolean reports whether an account was created.
func (s *AuthService) EnsureCouncilAccount(ctx context.Context, email, password string) (*domain.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		if existing.Role != domain.RoleCouncil {
			s.logger.Warn("council seed email belongs to a non-council account", zap.String("user_id", existing.ID))
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.NewServiceUnavailable(err)
	}

	user, err := s.createUser(ctx, email, password, domain.RoleCouncil)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("council account seeded", zap.String("user_id", user.ID))
	return user, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("Email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewServiceUnavailable(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password too long", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already exists", nil)
		}
		return nil, apperrors.NewServiceUnavailable(err)
	}
	return user, nil
}
