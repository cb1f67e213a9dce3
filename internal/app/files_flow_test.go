package app

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/prperemyshlev/statboard/internal/domain"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func (s *Suite) upload(user session, filename string, content []byte) *http.Response {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	return s.do(request{
		method:      http.MethodPost,
		path:        "/api/files/upload/" + user.id,
		token:       user.token,
		raw:         &body,
		contentType: writer.FormDataContentType(),
	})
}

func (s *Suite) TestAvatarLifecycle() {
	alice := s.register("alice@example.com", "alice")

	resp := s.do(request{method: http.MethodGet, path: "/api/files/" + alice.id, token: alice.token})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("Image Not found", s.errorMessage(resp))

	content := append(append([]byte{}, pngHeader...), []byte("pixels")...)
	resp = s.upload(alice, "avatar.png", content)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var user domain.User
	s.decode(resp, &user)
	s.Require().NotNil(user.Image)

	imageURL, err := url.Parse(*user.Image)
	s.Require().NoError(err)
	s.Equal("statboard.test", imageURL.Host)
	s.Regexp(`^/api/uploads/[0-9a-f-]+\.png$`, imageURL.Path)

	resp = s.do(request{method: http.MethodGet, path: "/api/files/" + alice.id, token: alice.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/png", resp.Header.Get("Content-Type"))
	served, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(content, served)

	resp = s.do(request{method: http.MethodGet, path: imageURL.Path})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.upload(alice, "second.png", content)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: imageURL.Path})
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.do(request{method: http.MethodDelete, path: "/api/files/" + alice.id, token: alice.token})
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(request{method: http.MethodDelete, path: "/api/files/" + alice.id, token: alice.token})
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestAvatarRejectsNonImages() {
	alice := s.register("alice@example.com", "alice")

	resp := s.upload(alice, "notes.txt", []byte("plain text"))
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("File must be a jpg, jpeg, png or gif image", s.errorMessage(resp))

	resp = s.upload(alice, "fake.png", []byte("not really a png"))
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = s.upload(alice, "huge.png", append(append([]byte{}, pngHeader...), make([]byte, 100*1024)...))
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("File is too large", s.errorMessage(resp))
}

func (s *Suite) TestAvatarUploadRequiresOwner() {
	alice := s.register("alice@example.com", "alice")
	bob := s.register("bob@example.com", "bobby")

	intruder := alice
	intruder.token = bob.token

	resp := s.upload(intruder, "avatar.png", pngHeader)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}
