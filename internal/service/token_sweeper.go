package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// TokenSweeper periodically deletes refresh tokens past their expiry
type TokenSweeper struct {
	tokenRepo repository.TokenRepository
	cron      *cron.Cron
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenSweeper schedules the sweep with a standard cron expression or
// descriptor such as @hourly
func NewTokenSweeper(tokenRepo repository.TokenRepository, schedule string, logger *zap.Logger) (*TokenSweeper, error) {
	s := &TokenSweeper{
		tokenRepo: tokenRepo,
		cron:      cron.New(),
		logger:    logger,
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	return s, nil
}

func (s *TokenSweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire
func (s *TokenSweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep deletes expired refresh tokens and returns how many were removed
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep refresh tokens: %w", err)
	}
	return removed, nil
}

func (s *TokenSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("token sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("expired refresh tokens removed", zap.Int64("count", removed))
}
