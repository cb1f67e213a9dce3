package service

import (
	"context"
	"errors"

	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/utils"
)

const (
	msgEmptyPayload   = "Payload must contain one of the fields (totalTime | score | other)"
	msgTotalTime      = "totalTime must match hh:mm:ss"
	msgStatsReference = "Product or User Not found"
)

type statisticService struct {
	statRepo repository.StatisticRepository
}

// NewStatisticService creates a new statistics service
func NewStatisticService(statRepo repository.StatisticRepository) StatisticService {
	return &statisticService{statRepo: statRepo}
}

// ValidateStatistic enforces the payload rule: level alone is not a result
func ValidateStatistic(req *dto.CreateStatisticRequest) error {
	hasTotalTime := req.TotalTime != nil && *req.TotalTime != ""
	hasOther := req.Other != nil && *req.Other != ""
	hasScore := req.Score != nil

	if !hasTotalTime && !hasOther && !hasScore {
		return apperror.Validation(msgEmptyPayload)
	}

	if hasTotalTime && !utils.ValidateTotalTime(*req.TotalTime) {
		return apperror.Validation(msgTotalTime)
	}

	return nil
}

func (s *statisticService) Create(ctx context.Context, userID, productID string, req *dto.CreateStatisticRequest) (*domain.Statistic, error) {
	if err := ValidateStatistic(req); err != nil {
		return nil, err
	}

	stat := &domain.Statistic{
		UserID:    userID,
		ProductID: productID,
		Level:     req.Level,
		TotalTime: nonEmpty(req.TotalTime),
		Score:     req.Score,
		Other:     nonEmpty(req.Other),
	}

	if err := s.statRepo.Create(ctx, stat); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, apperror.Wrap(err, apperror.CodeNotFound, msgStatsReference)
		}
		return nil, translate(err, "Statistics")
	}

	return stat, nil
}

func (s *statisticService) List(ctx context.Context) ([]*domain.Statistic, error) {
	stats, err := s.statRepo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return stats, nil
}

func (s *statisticService) Get(ctx context.Context, id string) (*domain.Statistic, error) {
	stat, err := s.statRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Statistics")
	}
	return stat, nil
}

func (s *statisticService) ListByProduct(ctx context.Context, productID string, sort []domain.SortKey, limit int) ([]*domain.Statistic, error) {
	return s.query(ctx, domain.StatsFilter{
		ProductID:      productID,
		Sort:           sort,
		Limit:          limit,
		ExcludeBlocked: true,
	})
}

func (s *statisticService) ListByUser(ctx context.Context, userID, productID string, sort []domain.SortKey, limit int) ([]*domain.Statistic, error) {
	return s.query(ctx, domain.StatsFilter{
		UserID:    userID,
		ProductID: productID,
		Sort:      sort,
		Limit:     limit,
	})
}

func (s *statisticService) Delete(ctx context.Context, id, userID string) error {
	return translate(s.statRepo.Delete(ctx, id, userID), "Statistics")
}

func (s *statisticService) query(ctx context.Context, filter domain.StatsFilter) ([]*domain.Statistic, error) {
	if len(filter.Sort) > 2 {
		return nil, apperror.Validation(apperror.MsgBadRequest)
	}

	stats, err := s.statRepo.Query(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, apperror.Wrap(err, apperror.CodeValidation, apperror.MsgBadRequest)
		}
		return nil, apperror.Internal(err)
	}
	return stats, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
