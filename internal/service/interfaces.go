package service

import (
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/oauth"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

// SessionService issues, rotates and revokes access/refresh token pairs
type SessionService interface {
	Issue(ctx context.Context, user *domain.User, device string) (*domain.SessionTokens, error)
	// Rotate consumes the presented refresh token and returns a fresh pair.
	// Any rejection yields ErrInvalidSession.
	Rotate(ctx context.Context, refreshToken, device string) (*domain.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, device string) (*domain.SessionTokens, error)
	Login(ctx context.Context, req *dto.LoginRequest, device string) (*domain.SessionTokens, error)
	LoginWithProfile(ctx context.Context, profile *oauth.Profile, device string) (*domain.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken, device string) (*domain.SessionTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate resolves a bearer token to an active user
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// UserService manages user records
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*domain.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ProductService manages products
type ProductService interface {
	Create(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// StatisticService records and queries statistics
type StatisticService interface {
	Create(ctx context.Context, userID, productID string, req *dto.CreateStatisticRequest) (*domain.Statistic, error)
	List(ctx context.Context) ([]*domain.Statistic, error)
	Get(ctx context.Context, id string) (*domain.Statistic, error)
	// ListByProduct skips statistics of blocked users
	ListByProduct(ctx context.Context, productID string, sort []domain.SortKey, limit int) ([]*domain.Statistic, error)
	ListByUser(ctx context.Context, userID, productID string, sort []domain.SortKey, limit int) ([]*domain.Statistic, error)
	Delete(ctx context.Context, id, userID string) error
}

// Avatar is an image ready to be streamed to the client
type Avatar struct {
	Body        io.ReadCloser
	ContentType string
}

// FileService validates, stores and serves user avatars
type FileService interface {
	// Store validates the upload and saves it under a generated name
	Store(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Attach points the user's image at a stored file and drops the previous one
	Attach(ctx context.Context, userID, name, baseURL string) (*domain.User, error)
	Fetch(ctx context.Context, userID string) (*Avatar, error)
	Open(ctx context.Context, name string) (*Avatar, error)
	Delete(ctx context.Context, userID string) error
	// Discard removes a stored file, ignoring failures
	Discard(ctx context.Context, name string)
}

// ResponseCache stores rendered GET responses
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	ResetAll(ctx context.Context) error
}
