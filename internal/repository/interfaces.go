package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/statboard/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

// UserRepository defines methods for user operations
type UserRepository interface {
	// Create inserts a local user. An existing federated user with the same
	// email is overwritten; an existing local user yields ErrDuplicate.
	Create(ctx context.Context, user *domain.User) error
	// Upsert inserts or overwrites a federated user keyed by email. A local
	// user with the same email yields ErrDuplicate.
	Upsert(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// TokenRepository defines methods for refresh token operations
type TokenRepository interface {
	// Upsert stores the token, replacing any token held for the same user and device
	Upsert(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// DeleteByToken returns ErrNotFound when nothing was deleted
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProductRepository defines methods for product operations
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// StatisticRepository defines methods for statistics operations
type StatisticRepository interface {
	Create(ctx context.Context, stat *domain.Statistic) error
	// GetByID returns the statistic with its user and product joined in
	GetByID(ctx context.Context, id string) (*domain.Statistic, error)
	List(ctx context.Context) ([]*domain.Statistic, error)
	// Query lists statistics for the filter scope with users and products joined in
	Query(ctx context.Context, filter domain.StatsFilter) ([]*domain.Statistic, error)
	// Delete removes a statistic owned by userID
	Delete(ctx context.Context, id, userID string) error
}
