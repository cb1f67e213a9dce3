package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/oauth"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/utils"
	"go.uber.org/zap"
)

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	sessions     SessionService
	jwtManager   *utils.JWTManager
	logger       *zap.Logger
	bcryptCost   int
	defaultRoles []domain.Role
}

// NewAuthService creates a new auth service. defaultRoles are granted to
// accounts created by a federated login.
func NewAuthService(
	userRepo repository.UserRepository,
	sessions SessionService,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
	bcryptCost int,
	defaultRoles []domain.Role,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		sessions:     sessions,
		jwtManager:   jwtManager,
		logger:       logger,
		bcryptCost:   bcryptCost,
		defaultRoles: defaultRoles,
	}
}

// Register creates a local user and opens a session for it
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, device string) (*domain.SessionTokens, error) {
	user := &domain.User{
		Email:    utils.SanitizeEmail(req.Email),
		Name:     req.Name,
		Roles:    []domain.Role{domain.RoleUser},
		Provider: domain.ProviderLocal,
	}

	if req.Password != nil {
		passwordHash, err := utils.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		user.Password = &passwordHash
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translate(err, "Email")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.issue(ctx, user, device)
}

// Login checks local credentials
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, device string) (*domain.SessionTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(apperror.MsgAuthError)
		}
		return nil, apperror.Internal(err)
	}

	if user.Password == nil || !utils.CheckPasswordHash(req.Password, *user.Password) {
		return nil, apperror.Unauthorized(apperror.MsgAuthError)
	}

	if user.IsBlocked {
		return nil, apperror.Unauthorized(apperror.MsgAuthError)
	}

	return s.issue(ctx, user, device)
}

// LoginWithProfile signs in a federated identity. A stored user whose name,
// image and provider all match is reused; anything else is upserted by email.
// An email held by a local account is never taken over.
func (s *authService) LoginWithProfile(ctx context.Context, profile *oauth.Profile, device string) (*domain.SessionTokens, error) {
	if err := oauth.ValidateProfile(profile); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUnauthorized, "Email and username must be filled")
	}

	email := utils.SanitizeEmail(profile.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	if user != nil && user.Provider == domain.ProviderLocal {
		return nil, apperror.Conflict("User")
	}

	if user == nil || !sameProfile(user, profile) {
		user = &domain.User{
			Email:    email,
			Name:     profile.Name,
			Image:    profile.Image,
			Roles:    append([]domain.Role(nil), s.defaultRoles...),
			Provider: profile.Provider,
		}
		if err := s.userRepo.Upsert(ctx, user); err != nil {
			return nil, translate(err, "User")
		}
		s.logger.Info("federated user stored",
			zap.String("user_id", user.ID),
			zap.String("provider", string(profile.Provider)),
		)
	}

	if user.IsBlocked {
		return nil, apperror.Unauthorized(apperror.MsgAuthError)
	}

	return s.issue(ctx, user, device)
}

// Refresh rotates the refresh token
func (s *authService) Refresh(ctx context.Context, refreshToken, device string) (*domain.SessionTokens, error) {
	tokens, err := s.sessions.Rotate(ctx, refreshToken, device)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return nil, apperror.Wrap(err, apperror.CodeUnauthorized, apperror.MsgUnauthorized)
		}
		return nil, apperror.Internal(err)
	}
	return tokens, nil
}

// Logout revokes the refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Authenticate validates an access token and loads its user
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.jwtManager.ValidateToken(accessToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUnauthorized, apperror.MsgUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
			return nil, apperror.Wrap(err, apperror.CodeUnauthorized, apperror.MsgUnauthorized)
		}
		return nil, apperror.Internal(err)
	}

	if user.IsBlocked {
		return nil, apperror.Unauthorized(apperror.MsgUnauthorized)
	}

	return user, nil
}

func (s *authService) issue(ctx context.Context, user *domain.User, device string) (*domain.SessionTokens, error) {
	tokens, err := s.sessions.Issue(ctx, user, device)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to issue session: %w", err))
	}
	return tokens, nil
}

func sameProfile(user *domain.User, profile *oauth.Profile) bool {
	if user.Name != profile.Name || user.Provider != profile.Provider {
		return false
	}
	if user.Image == nil || profile.Image == nil {
		return user.Image == nil && profile.Image == nil
	}
	return *user.Image == *profile.Image
}
