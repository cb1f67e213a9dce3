package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/repository/mocks"
	"github.com/prperemyshlev/statboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const (
	testUploadsPath = "/api/uploads"
	testBaseURL     = "http://localhost:5100"
)

var pngBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

// memoryUsers keeps users for the file service tests
type memoryUsers struct {
	*mocks.MockUserRepository
	users map[string]*domain.User
}

func newMemoryUsers(ctrl *gomock.Controller) *memoryUsers {
	m := &memoryUsers{MockUserRepository: mocks.NewMockUserRepository(ctrl), users: map[string]*domain.User{}}

	m.EXPECT().GetByID(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) (*domain.User, error) {
		u, ok := m.users[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		cp := *u
		return &cp, nil
	}).AnyTimes()

	m.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
		u, ok := m.users[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		if upd.ClearImage {
			u.Image = nil
		} else if upd.Image != nil {
			u.Image = upd.Image
		}
		cp := *u
		return &cp, nil
	}).AnyTimes()

	return m
}

type FileServiceSuite struct {
	suite.Suite
	ctx     context.Context
	dir     string
	files   *storage.LocalStorage
	users   *memoryUsers
	service FileService
}

func (s *FileServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()

	files, err := storage.NewLocal(s.dir)
	s.Require().NoError(err)
	s.files = files

	s.users = newMemoryUsers(gomock.NewController(s.T()))
	s.users.users["u-1"] = &domain.User{ID: "u-1", Email: "bob@example.com", Name: "Bobby"}

	s.service = NewFileService(files, s.users, testUploadsPath, 100*1024, time.Second, zap.NewNop())
}

func TestFileServiceSuite(t *testing.T) {
	suite.Run(t, new(FileServiceSuite))
}

func (s *FileServiceSuite) TestStoreRejectsInvalidFiles() {
	cases := map[string]*multipart.FileHeader{
		"extension":  fileHeader(s.T(), "avatar.bmp", pngBytes),
		"magic":      fileHeader(s.T(), "avatar.png", []byte("GIF89a..")),
		"mismatch":   fileHeader(s.T(), "avatar.jpg", pngBytes),
		"too short":  fileHeader(s.T(), "avatar.png", []byte{0x89}),
		"size limit": fileHeader(s.T(), "avatar.png", append(append([]byte{}, pngBytes...), make([]byte, 100*1024)...)),
	}

	for name, fh := range cases {
		_, err := s.service.Store(s.ctx, fh)
		s.Equal(apperror.CodeUnprocessable, apperror.From(err).Code, name)
	}
}

func (s *FileServiceSuite) TestUploadFetchDeleteCycle() {
	name, err := s.service.Store(s.ctx, fileHeader(s.T(), "Avatar.PNG", pngBytes))
	s.Require().NoError(err)
	s.Regexp(`^[0-9a-f-]{36}\.png$`, name)

	user, err := s.service.Attach(s.ctx, "u-1", name, testBaseURL)
	s.Require().NoError(err)
	s.Require().NotNil(user.Image)
	s.Equal(testBaseURL+testUploadsPath+"/"+name, *user.Image)

	avatar, err := s.service.Fetch(s.ctx, "u-1")
	s.Require().NoError(err)
	data, err := io.ReadAll(avatar.Body)
	s.Require().NoError(err)
	s.Require().NoError(avatar.Body.Close())
	s.Equal(pngBytes, data)
	s.Equal("image/png", avatar.ContentType)

	s.Require().NoError(s.service.Delete(s.ctx, "u-1"))

	_, err = s.service.Fetch(s.ctx, "u-1")
	s.Equal(apperror.CodeNotFound, apperror.From(err).Code)
	_, err = s.files.Open(s.ctx, name)
	s.ErrorIs(err, storage.ErrNotFound)

	name, err = s.service.Store(s.ctx, fileHeader(s.T(), "again.png", pngBytes))
	s.Require().NoError(err)
	_, err = s.service.Attach(s.ctx, "u-1", name, testBaseURL)
	s.Require().NoError(err)
}

func (s *FileServiceSuite) TestAttachReplacesPreviousFile() {
	first, err := s.service.Store(s.ctx, fileHeader(s.T(), "a.png", pngBytes))
	s.Require().NoError(err)
	_, err = s.service.Attach(s.ctx, "u-1", first, testBaseURL)
	s.Require().NoError(err)

	second, err := s.service.Store(s.ctx, fileHeader(s.T(), "b.png", pngBytes))
	s.Require().NoError(err)
	_, err = s.service.Attach(s.ctx, "u-1", second, testBaseURL)
	s.Require().NoError(err)

	_, err = s.files.Open(s.ctx, first)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *FileServiceSuite) TestDeleteWithoutImage() {
	err := s.service.Delete(s.ctx, "u-1")
	s.Equal(apperror.CodeNotFound, apperror.From(err).Code)
}

func (s *FileServiceSuite) TestFetchRemoteAvatar() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			_, _ = w.Write(pngBytes)
			return
		}
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	image := srv.URL + "/ok.png"
	s.users.users["u-1"].Image = &image

	avatar, err := s.service.Fetch(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal("image/png", avatar.ContentType)

	bad := srv.URL + "/page"
	s.users.users["u-1"].Image = &bad

	_, err = s.service.Fetch(s.ctx, "u-1")
	s.Equal(apperror.CodeNotFound, apperror.From(err).Code)
}

func TestStoredName(t *testing.T) {
	name, ok := storedName("http://localhost:5100/api/uploads/abc.png", testUploadsPath)
	assert.True(t, ok)
	assert.Equal(t, "abc.png", name)

	for _, image := range []string{
		"https://avatars.githubusercontent.com/u/1",
		"http://localhost:5100/api/uploads/",
		"http://localhost:5100/api/uploads/a/b.png",
		"http://localhost:5100/uploads/abc.png",
	} {
		_, ok := storedName(image, testUploadsPath)
		assert.False(t, ok, image)
	}
}

func TestUserDeleteRemovesAvatar(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)

	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, files.Save(ctx, "abc.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png"))

	image := testBaseURL + testUploadsPath + "/abc.png"
	repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(&domain.User{ID: "u-1", Image: &image}, nil)
	repo.EXPECT().Delete(gomock.Any(), "u-1").Return(nil)

	svc := NewUserService(repo, files, testUploadsPath, 4, zap.NewNop())
	require.NoError(t, svc.Delete(ctx, "u-1"))

	_, err = files.Open(ctx, "abc.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
