package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	ownerID = "6f1c1f36-6a0e-4d6b-9d4a-6c1f0b8a9e01"
	otherID = "0b3d6a8e-2f4c-4c1e-8f0d-3a9b7c5e1d22"
	prodID  = "9e2a4c6b-1d3f-4a5b-8c7d-0e1f2a3b4c5d"
	statID  = "4a1b2c3d-5e6f-4a7b-8c9d-0e1f2a3b4c5e"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testUser(id string, roles ...domain.Role) *domain.User {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	return &domain.User{ID: id, Email: id[:8] + "@example.com", Name: "tester", Roles: roles}
}

// newRouter returns an engine with the error pipeline installed
func newRouter(files service.FileService) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(RecoveryHandler(zap.NewNop())))
	r.Use(ErrorMiddleware(files, zap.NewNop()))
	return r
}

// asUser authenticates every request as user
func asUser(user *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		setCurrentUser(c, user)
		c.Next()
	}
}

func perform(r http.Handler, method, target string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "handler-test")
	for _, m := range mutate {
		m(req)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
