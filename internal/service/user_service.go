package service

import (
	"context"

	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/storage"
	"github.com/prperemyshlev/statboard/internal/utils"
	"go.uber.org/zap"
)

type userService struct {
	userRepo    repository.UserRepository
	files       storage.FileStorage
	uploadsPath string
	bcryptCost  int
	logger      *zap.Logger
}

// NewUserService creates a new user service. uploadsPath is the URL path under
// which stored avatars are served, e.g. /api/uploads.
func NewUserService(
	userRepo repository.UserRepository,
	files storage.FileStorage,
	uploadsPath string,
	bcryptCost int,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		files:       files,
		uploadsPath: uploadsPath,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

const msgPasswordForLocalOnly = "Password can only be set for local accounts"

// Update changes name and password. Federated accounts authenticate through
// their provider and never get a password.
func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*domain.User, error) {
	update := domain.UserUpdate{Name: req.Name}

	if req.Password != nil {
		current, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, translate(err, "User")
		}
		if current.Provider != domain.ProviderLocal {
			return nil, apperror.Validation(msgPasswordForLocalOnly)
		}

		passwordHash, err := utils.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		update.Password = &passwordHash
	}

	user, err := s.userRepo.Update(ctx, id, update)
	if err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

func (s *userService) SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error) {
	user, err := s.userRepo.Update(ctx, id, domain.UserUpdate{IsBlocked: &blocked})
	if err != nil {
		return nil, translate(err, "User")
	}

	s.logger.Info("user block state changed", zap.String("user_id", id), zap.Bool("blocked", blocked))
	return user, nil
}

// Delete removes the user and, best-effort, the stored avatar
func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return translate(err, "User")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return translate(err, "User")
	}

	if user.Image != nil {
		if name, ok := storedName(*user.Image, s.uploadsPath); ok {
			if err := s.files.Remove(ctx, name); err != nil {
				s.logger.Warn("failed to remove avatar", zap.String("file", name), zap.Error(err))
			}
		}
	}

	return nil
}
