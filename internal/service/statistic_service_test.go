package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestValidateStatistic(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.CreateStatisticRequest
		wantErr bool
	}{
		{"empty payload", dto.CreateStatisticRequest{}, true},
		{"level only", dto.CreateStatisticRequest{Level: ptr(3)}, true},
		{"empty strings", dto.CreateStatisticRequest{TotalTime: ptr(""), Other: ptr("")}, true},
		{"score", dto.CreateStatisticRequest{Score: ptr(0.0)}, false},
		{"total time", dto.CreateStatisticRequest{TotalTime: ptr("01:02:03")}, false},
		{"other", dto.CreateStatisticRequest{Level: ptr(2), Other: ptr("boss")}, false},
		{"malformed total time", dto.CreateStatisticRequest{TotalTime: ptr("25:00:00")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatistic(&tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperror.CodeValidation, apperror.From(err).Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateStatistic(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatisticRepository(ctrl)
	svc := NewStatisticService(repo)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.Statistic) error {
		assert.Equal(t, "u-1", s.UserID)
		assert.Equal(t, "p-1", s.ProductID)
		assert.Nil(t, s.Other)
		s.ID = "s-1"
		return nil
	})

	stat, err := svc.Create(context.Background(), "u-1", "p-1", &dto.CreateStatisticRequest{Score: ptr(510.0), Other: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "s-1", stat.ID)
}

func TestCreateStatisticMissingReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatisticRepository(ctrl)
	svc := NewStatisticService(repo)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repository.ErrForeignKey)

	_, err := svc.Create(context.Background(), "u-1", "p-1", &dto.CreateStatisticRequest{Score: ptr(1.0)})
	appErr := apperror.From(err)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "Product or User Not found", appErr.Message)
}

func TestListByProductExcludesBlocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatisticRepository(ctrl)
	svc := NewStatisticService(repo)

	sort := []domain.SortKey{{Field: domain.StatFieldScore, Order: domain.SortDesc}}
	want := []*domain.Statistic{{ID: "a", Score: ptr(510.0)}, {ID: "b", Score: ptr(230.0)}}

	repo.EXPECT().Query(gomock.Any(), domain.StatsFilter{
		ProductID:      "p-1",
		Sort:           sort,
		Limit:          10,
		ExcludeBlocked: true,
	}).Return(want, nil)

	got, err := svc.ListByProduct(context.Background(), "p-1", sort, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListByUserKeepsBlocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatisticRepository(ctrl)
	svc := NewStatisticService(repo)

	repo.EXPECT().Query(gomock.Any(), domain.StatsFilter{UserID: "u-1", ProductID: "p-1"}).Return(nil, nil)

	_, err := svc.ListByUser(context.Background(), "u-1", "p-1", nil, 0)
	require.NoError(t, err)
}

func TestListRejectsTooManySortKeys(t *testing.T) {
	svc := NewStatisticService(mocks.NewMockStatisticRepository(gomock.NewController(t)))
	sort := []domain.SortKey{
		{Field: domain.StatFieldScore, Order: domain.SortDesc},
		{Field: domain.StatFieldOther, Order: domain.SortDesc},
		{Field: domain.StatFieldTotalTime, Order: domain.SortDesc},
	}

	_, err := svc.ListByProduct(context.Background(), "p-1", sort, 1)
	assert.Equal(t, apperror.CodeValidation, apperror.From(err).Code)
}

func TestDeleteStatisticNotOwned(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatisticRepository(ctrl)
	svc := NewStatisticService(repo)

	repo.EXPECT().Delete(gomock.Any(), "s-1", "u-2").Return(repository.ErrNotFound)

	err := svc.Delete(context.Background(), "s-1", "u-2")
	appErr := apperror.From(err)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "Statistics Not found", appErr.Message)
}

func TestProductServiceTranslatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	svc := NewProductService(repo)
	ctx := context.Background()

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicate)
	_, err := svc.Create(ctx, &dto.CreateProductRequest{Name: "Tetris", Description: "Blocks"})
	assert.Equal(t, "Product Already exist", apperror.From(err).Message)
	assert.Equal(t, apperror.CodeConflict, apperror.From(err).Code)

	repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, repository.ErrNotFound)
	_, err = svc.Get(ctx, "missing")
	assert.Equal(t, "Product Not found", apperror.From(err).Message)

	repo.EXPECT().Delete(gomock.Any(), "bad").Return(repository.ErrInvalidInput)
	err = svc.Delete(ctx, "bad")
	assert.Equal(t, apperror.MsgIncorrectID, apperror.From(err).Message)
	assert.Equal(t, apperror.CodeValidation, apperror.From(err).Code)

	repo.EXPECT().Delete(gomock.Any(), "ok").Return(nil)
	assert.NoError(t, svc.Delete(ctx, "ok"))
}
