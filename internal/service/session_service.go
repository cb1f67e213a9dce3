package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// rejection reasons reported on session.rejected
const (
	reasonUnknown  = "unknown"
	reasonConsumed = "consumed"
	reasonExpired  = "expired"
	reasonNoUser   = "user_missing"
	reasonBlocked  = "blocked"
)

type sessionService struct {
	tokenRepo  repository.TokenRepository
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	logger     *zap.Logger
	now        func() time.Time

	issued   metric.Int64Counter
	rotated  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewSessionService creates a new session service
func NewSessionService(
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
) SessionService {
	meter := otel.Meter("statboard/session")

	s := &sessionService{
		tokenRepo:  tokenRepo,
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     logger,
		now:        time.Now,
	}

	var err error
	if s.issued, err = meter.Int64Counter("session.issued", metric.WithDescription("Sessions issued")); err != nil {
		logger.Warn("failed to create session.issued counter", zap.Error(err))
	}
	if s.rotated, err = meter.Int64Counter("session.rotated", metric.WithDescription("Refresh tokens rotated")); err != nil {
		logger.Warn("failed to create session.rotated counter", zap.Error(err))
	}
	if s.rejected, err = meter.Int64Counter("session.rejected", metric.WithDescription("Refresh tokens rejected")); err != nil {
		logger.Warn("failed to create session.rejected counter", zap.Error(err))
	}

	return s
}

// Issue signs a new pair and stores the refresh token for the user's device,
// superseding whatever token the device held before.
func (s *sessionService) Issue(ctx context.Context, user *domain.User, device string) (*domain.SessionTokens, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	stored := domain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		UserAgent: device,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}

	if err := s.tokenRepo.Upsert(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	if s.issued != nil {
		s.issued.Add(ctx, 1)
	}

	return &domain.SessionTokens{AccessToken: accessToken, RefreshToken: stored}, nil
}

// Rotate consumes the presented token. The delete is the point of no return:
// once it succeeds the token is gone whether or not a new pair follows.
func (s *sessionService) Rotate(ctx context.Context, refreshToken, device string) (*domain.SessionTokens, error) {
	stored, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject(ctx, reasonUnknown)
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// a concurrent rotation got there first
			return nil, s.reject(ctx, reasonConsumed)
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	expiresAt, err := utils.ExpiryOf(refreshToken)
	if err != nil || !expiresAt.After(s.now()) {
		return nil, s.reject(ctx, reasonExpired)
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject(ctx, reasonNoUser)
		}
		return nil, fmt.Errorf("failed to load session owner: %w", err)
	}

	if user.IsBlocked {
		return nil, s.reject(ctx, reasonBlocked)
	}

	tokens, err := s.Issue(ctx, user, device)
	if err != nil {
		return nil, err
	}

	if s.rotated != nil {
		s.rotated.Add(ctx, 1)
	}

	return tokens, nil
}

// Revoke deletes the refresh token; an unknown token is not an error
func (s *sessionService) Revoke(ctx context.Context, refreshToken string) error {
	err := s.tokenRepo.DeleteByToken(ctx, refreshToken)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *sessionService) reject(ctx context.Context, reason string) error {
	if s.rejected != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	s.logger.Debug("refresh token rejected", zap.String("reason", reason))
	return fmt.Errorf("%w: %s", ErrInvalidSession, reason)
}
