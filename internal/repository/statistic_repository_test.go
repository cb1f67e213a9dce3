package repository

import (
	"testing"

	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStatsQuerySingleField(t *testing.T) {
	query, args, err := buildStatsQuery(domain.StatsFilter{
		ProductID:      "p-1",
		Sort:           []domain.SortKey{{Field: domain.StatFieldScore, Order: domain.SortDesc}},
		Limit:          10,
		ExcludeBlocked: true,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE s.product_id = $1 AND u.is_blocked = FALSE AND s.score IS NOT NULL")
	assert.Contains(t, query, "ORDER BY s.score DESC, s.created_at ASC")
	assert.Contains(t, query, "LIMIT $2")
	assert.Equal(t, []any{"p-1", 10}, args)
}

func TestBuildStatsQueryTwoFields(t *testing.T) {
	query, args, err := buildStatsQuery(domain.StatsFilter{
		UserID:    "u-1",
		ProductID: "p-1",
		Sort: []domain.SortKey{
			{Field: domain.StatFieldTotalTime, Order: domain.SortAsc},
			{Field: domain.StatFieldOther, Order: domain.SortDesc},
		},
		Limit: 3,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "s.product_id = $1 AND s.user_id = $2")
	assert.Contains(t, query, "s.total_time IS NOT NULL AND s.other IS NOT NULL")
	assert.Contains(t, query, "ORDER BY s.total_time ASC, s.other DESC, s.created_at ASC")
	assert.NotContains(t, query, "is_blocked")
	assert.Equal(t, []any{"p-1", "u-1", 3}, args)
}

func TestBuildStatsQueryWithoutSort(t *testing.T) {
	query, args, err := buildStatsQuery(domain.StatsFilter{UserID: "u-1"})
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE s.user_id = $1")
	assert.Contains(t, query, "ORDER BY s.created_at ASC")
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []any{"u-1"}, args)
}

func TestBuildStatsQueryRejectsUnknownField(t *testing.T) {
	_, _, err := buildStatsQuery(domain.StatsFilter{
		Sort: []domain.SortKey{{Field: "level; DROP TABLE users", Order: domain.SortAsc}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = buildStatsQuery(domain.StatsFilter{
		Sort: []domain.SortKey{{Field: domain.StatFieldScore, Order: "sideways"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
