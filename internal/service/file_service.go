package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/storage"
	"go.uber.org/zap"
)

const (
	msgImageNotFound = "Image Not found"
	msgImageType     = "File must be a jpg, jpeg, png or gif image"
	msgImageSize     = "File is too large"

	remoteImageLimit = 5 << 20
)

// imageSignatures lists the accepted leading bytes per extension
var imageSignatures = map[string][][]byte{
	".jpg":  {{0xff, 0xd8, 0xff, 0xe0}, {0xff, 0xd8, 0xff, 0xe1}},
	".jpeg": {{0xff, 0xd8, 0xff, 0xe0}, {0xff, 0xd8, 0xff, 0xe1}},
	".png":  {{0x89, 0x50, 0x4e, 0x47}},
	".gif":  {{0x47, 0x49, 0x46, 0x38}},
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

type fileService struct {
	files       storage.FileStorage
	userRepo    repository.UserRepository
	client      *http.Client
	uploadsPath string
	maxSize     int64
	logger      *zap.Logger
}

// NewFileService creates a new avatar service. Remote avatars are fetched
// with fetchTimeout; uploads must be smaller than maxSize bytes.
func NewFileService(
	files storage.FileStorage,
	userRepo repository.UserRepository,
	uploadsPath string,
	maxSize int64,
	fetchTimeout time.Duration,
	logger *zap.Logger,
) FileService {
	return &fileService{
		files:       files,
		userRepo:    userRepo,
		client:      &http.Client{Timeout: fetchTimeout},
		uploadsPath: uploadsPath,
		maxSize:     maxSize,
		logger:      logger,
	}
}

func (s *fileService) Store(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(path.Ext(file.Filename))
	signatures, ok := imageSignatures[ext]
	if !ok {
		return "", apperror.Unprocessable(msgImageType)
	}

	if file.Size >= s.maxSize {
		return "", apperror.Unprocessable(msgImageSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("failed to open upload: %w", err))
	}
	defer src.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(src, head); err != nil || !matchesAny(head, signatures) {
		return "", apperror.Unprocessable(msgImageType)
	}

	name := uuid.NewString() + ext
	body := io.MultiReader(bytes.NewReader(head), src)

	if err := s.files.Save(ctx, name, body, file.Size, contentTypes[ext]); err != nil {
		return "", apperror.Internal(err)
	}

	return name, nil
}

func (s *fileService) Attach(ctx context.Context, userID, name, baseURL string) (*domain.User, error) {
	previous, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}

	image := strings.TrimRight(baseURL, "/") + s.uploadsPath + "/" + name
	user, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{Image: &image})
	if err != nil {
		return nil, translate(err, "User")
	}

	if previous.Image != nil {
		if old, ok := storedName(*previous.Image, s.uploadsPath); ok && old != name {
			s.Discard(ctx, old)
		}
	}

	return user, nil
}

// Fetch streams a stored avatar or proxies the provider-hosted one
func (s *fileService) Fetch(ctx context.Context, userID string) (*Avatar, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}

	if user.Image == nil || *user.Image == "" {
		return nil, apperror.New(apperror.CodeNotFound, msgImageNotFound)
	}

	if name, ok := storedName(*user.Image, s.uploadsPath); ok {
		return s.Open(ctx, name)
	}

	return s.fetchRemote(ctx, *user.Image)
}

func (s *fileService) Open(ctx context.Context, name string) (*Avatar, error) {
	body, err := s.files.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, apperror.Wrap(err, apperror.CodeNotFound, msgImageNotFound)
		}
		return nil, apperror.Internal(err)
	}

	contentType, ok := contentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		contentType = "application/octet-stream"
	}

	return &Avatar{Body: body, ContentType: contentType}, nil
}

func (s *fileService) Delete(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return translate(err, "User")
	}

	if user.Image == nil {
		return apperror.New(apperror.CodeNotFound, msgImageNotFound)
	}

	if _, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{ClearImage: true}); err != nil {
		return translate(err, "User")
	}

	if name, ok := storedName(*user.Image, s.uploadsPath); ok {
		s.Discard(ctx, name)
	}

	return nil
}

func (s *fileService) Discard(ctx context.Context, name string) {
	if err := s.files.Remove(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to remove file", zap.String("file", name), zap.Error(err))
	}
}

func (s *fileService) fetchRemote(ctx context.Context, imageURL string) (*Avatar, error) {
	notFound := apperror.New(apperror.CodeNotFound, msgImageNotFound)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, notFound
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("remote avatar unreachable", zap.String("url", imageURL), zap.Error(err))
		return nil, notFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, notFound
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, remoteImageLimit))
	if err != nil || len(data) < 4 {
		return nil, notFound
	}

	contentType, ok := detectImage(data[:4])
	if !ok {
		return nil, notFound
	}

	return &Avatar{Body: io.NopCloser(bytes.NewReader(data)), ContentType: contentType}, nil
}

// storedName extracts the file name from an avatar URL that points at our
// own uploads route
func storedName(image, uploadsPath string) (string, bool) {
	u, err := url.Parse(image)
	if err != nil {
		return "", false
	}

	prefix := strings.TrimRight(uploadsPath, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}

	name := strings.TrimPrefix(u.Path, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}

	return name, true
}

func matchesAny(head []byte, signatures [][]byte) bool {
	for _, sig := range signatures {
		if bytes.Equal(head, sig) {
			return true
		}
	}
	return false
}

func detectImage(head []byte) (string, bool) {
	for ext, signatures := range imageSignatures {
		if matchesAny(head, signatures) {
			return contentTypes[ext], true
		}
	}
	return "", false
}
