package app

import (
	"io"
	"net/http"
	"strconv"

	"github.com/prperemyshlev/statboard/internal/dto"
)

func (s *Suite) TestHealth() {
	resp := s.do(request{method: http.MethodGet, path: "/health"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	s.decode(resp, &body)
	s.Equal("pass", body.Status)
	s.Equal(map[string]string{"postgres": "pass", "redis": "pass"}, body.Checks)
}

func (s *Suite) TestMetricsExposeSessionCounters() {
	s.register("alice@example.com", "alice")

	resp := s.do(request{method: http.MethodGet, path: "/metrics"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "session_issued")
}

func (s *Suite) TestLoginIsRateLimited() {
	login := dto.LoginRequest{Email: "nobody@example.com", Password: testPassword}

	for i := 0; i < testRateLimit; i++ {
		resp := s.do(request{method: http.MethodPost, path: "/api/auth/login", body: login})
		s.Require().Equal(http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}

	resp := s.do(request{method: http.MethodPost, path: "/api/auth/login", body: login})
	s.Require().Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.Equal("Too Many Requests", s.errorMessage(resp))

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	s.Require().NoError(err)
	s.Positive(retryAfter)

	resp = s.do(request{method: http.MethodGet, path: "/api/auth/refresh-tokens"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestDeleteUserCascades() {
	admin := s.registerAdmin("admin@example.com", "admin")
	alice := s.register("alice@example.com", "alice")

	product := s.createProduct(admin, "Tetris")
	s.postScore(alice, product.ID, 77)
	s.Require().Equal(http.StatusCreated, s.upload(alice, "avatar.png", pngHeader).StatusCode)

	resp := s.do(request{method: http.MethodDelete, path: "/api/users/" + alice.id, token: alice.token})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	var stats, tokens int
	s.Require().NoError(s.infra.postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM statistics WHERE user_id = $1`, alice.id).Scan(&stats))
	s.Require().NoError(s.infra.postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1`, alice.id).Scan(&tokens))
	s.Zero(stats)
	s.Zero(tokens)

	resp = s.do(request{method: http.MethodGet, path: "/api/users/" + alice.id, token: admin.token})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("User Not found", s.errorMessage(resp))

	resp = s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{alice.refresh},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
