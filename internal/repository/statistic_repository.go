package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/pkg/database"
)

const statisticColumns = `id, user_id, product_id, created_at, level, total_time, score, other`

const statisticJoinedSelect = `
	SELECT s.id, s.user_id, s.product_id, s.created_at, s.level, s.total_time, s.score, s.other,
		u.id, u.name, u.email, u.image,
		p.id, p.name, p.description, p.created_at, p.updated_at
	FROM statistics s
	JOIN users u ON u.id = s.user_id
	JOIN products p ON p.id = s.product_id`

type statisticRepository struct {
	db *database.Postgres
}

// NewStatisticRepository creates a new statistics repository
func NewStatisticRepository(db *database.Postgres) StatisticRepository {
	return &statisticRepository{db: db}
}

type statisticRow struct {
	level     sql.NullInt64
	totalTime sql.NullString
	score     sql.NullFloat64
	other     sql.NullString
}

func (r statisticRow) apply(s *domain.Statistic) {
	if r.level.Valid {
		level := int(r.level.Int64)
		s.Level = &level
	}
	if r.totalTime.Valid {
		s.TotalTime = &r.totalTime.String
	}
	if r.score.Valid {
		s.Score = &r.score.Float64
	}
	if r.other.Valid {
		s.Other = &r.other.String
	}
}

func scanStatistic(row rowScanner) (*domain.Statistic, error) {
	s := &domain.Statistic{}
	var nulls statisticRow

	err := row.Scan(
		&s.ID, &s.UserID, &s.ProductID, &s.CreatedAt,
		&nulls.level, &nulls.totalTime, &nulls.score, &nulls.other,
	)
	if err != nil {
		return nil, err
	}
	nulls.apply(s)

	return s, nil
}

func scanJoinedStatistic(row rowScanner) (*domain.Statistic, error) {
	s := &domain.Statistic{User: &domain.UserSummary{}, Product: &domain.Product{}}
	var nulls statisticRow
	var image sql.NullString

	err := row.Scan(
		&s.ID, &s.UserID, &s.ProductID, &s.CreatedAt,
		&nulls.level, &nulls.totalTime, &nulls.score, &nulls.other,
		&s.User.ID, &s.User.Name, &s.User.Email, &image,
		&s.Product.ID, &s.Product.Name, &s.Product.Description, &s.Product.CreatedAt, &s.Product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	nulls.apply(s)
	if image.Valid {
		s.User.Image = &image.String
	}

	return s, nil
}

func (r *statisticRepository) Create(ctx context.Context, stat *domain.Statistic) error {
	query := `
		INSERT INTO statistics (` + statisticColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if stat.ID == "" {
		stat.ID = uuid.New().String()
	}
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		stat.ID,
		stat.UserID,
		stat.ProductID,
		stat.CreatedAt,
		stat.Level,
		stat.TotalTime,
		stat.Score,
		stat.Other,
	)
	if err != nil {
		return mapError(err, "failed to create statistic")
	}

	return nil
}

// GetByID returns the statistic with its user and product joined in
func (r *statisticRepository) GetByID(ctx context.Context, id string) (*domain.Statistic, error) {
	query := statisticJoinedSelect + "\n\tWHERE s.id = $1"

	stat, err := scanJoinedStatistic(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("statistic with id %s not found: %w", id, ErrNotFound)
		}
		return nil, mapError(err, "failed to get statistic")
	}

	return stat, nil
}

func (r *statisticRepository) List(ctx context.Context) ([]*domain.Statistic, error) {
	query := `SELECT ` + statisticColumns + ` FROM statistics ORDER BY created_at`

	rows, err := r.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list statistics")
	}
	defer rows.Close()

	return collectStatistics(rows, scanStatistic)
}

func (r *statisticRepository) Query(ctx context.Context, filter domain.StatsFilter) ([]*domain.Statistic, error) {
	query, args, err := buildStatsQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to query statistics")
	}
	defer rows.Close()

	return collectStatistics(rows, scanJoinedStatistic)
}

func (r *statisticRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM statistics WHERE id = $1 AND user_id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return mapError(err, "failed to delete statistic")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("statistic with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}

func collectStatistics(rows *sql.Rows, scan func(rowScanner) (*domain.Statistic, error)) ([]*domain.Statistic, error) {
	stats := make([]*domain.Statistic, 0)
	for rows.Next() {
		stat, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statistic: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate statistics: %w", err)
	}

	return stats, nil
}

// buildStatsQuery renders the filter into SQL. Sort columns come from a fixed
// whitelist and are never taken from the caller verbatim.
func buildStatsQuery(filter domain.StatsFilter) (string, []any, error) {
	var (
		where   []string
		orderBy []string
		args    []any
	)

	if filter.ProductID != "" {
		args = append(args, filter.ProductID)
		where = append(where, fmt.Sprintf("s.product_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("s.user_id = $%d", len(args)))
	}
	if filter.ExcludeBlocked {
		where = append(where, "u.is_blocked = FALSE")
	}

	for _, key := range filter.Sort {
		column, order := key.Field.Column(), key.Order.SQL()
		if column == "" || order == "" {
			return "", nil, fmt.Errorf("unsupported sort %s %s: %w", key.Field, key.Order, ErrInvalidInput)
		}
		where = append(where, fmt.Sprintf("s.%s IS NOT NULL", column))
		orderBy = append(orderBy, fmt.Sprintf("s.%s %s", column, order))
	}
	orderBy = append(orderBy, "s.created_at ASC")

	var b strings.Builder
	b.WriteString(statisticJoinedSelect)
	if len(where) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\n\tORDER BY ")
	b.WriteString(strings.Join(orderBy, ", "))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\n\tLIMIT $%d", len(args))
	}

	return b.String(), args, nil
}
