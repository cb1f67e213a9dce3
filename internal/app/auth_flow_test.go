package app

import (
	"net/http"

	"github.com/prperemyshlev/statboard/internal/dto"
)

func (s *Suite) TestRegisterAndLogin() {
	alice := s.register("alice@example.com", "alice")
	s.NotEmpty(alice.token)
	s.Require().NotNil(alice.refresh)
	s.True(alice.refresh.HttpOnly)

	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   dto.RegisterRequest{Email: "alice@example.com", Name: "alice2"},
	})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("Email Already exist", s.errorMessage(resp))

	resp = s.do(request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   dto.LoginRequest{Email: "Alice@Example.com", Password: testPassword},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.NotNil(refreshCookieOf(resp))

	resp = s.do(request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   dto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Authorization error", s.errorMessage(resp))
}

func (s *Suite) TestRegisterValidation() {
	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   map[string]string{"email": "not-an-email", "name": "bob"},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	msg := s.errorMessage(resp)
	s.Contains(msg, "email must be an email")
	s.Contains(msg, "name must be longer than or equal to 4 characters")
}

func (s *Suite) TestRefreshRotatesToken() {
	alice := s.register("alice@example.com", "alice")

	resp := s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{alice.refresh},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var auth dto.AuthResponse
	s.decode(resp, &auth)
	s.NotEmpty(auth.AccessToken)

	rotated := refreshCookieOf(resp)
	s.Require().NotNil(rotated)
	s.NotEqual(alice.refresh.Value, rotated.Value)

	resp = s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{alice.refresh},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{rotated},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
}

func (s *Suite) TestRefreshWithoutCookie() {
	resp := s.do(request{method: http.MethodGet, path: "/api/auth/refresh-tokens"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout() {
	alice := s.register("alice@example.com", "alice")

	resp := s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/logout",
		cookies: []*http.Cookie{alice.refresh},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body dto.SuccessResponse
	s.decode(resp, &body)
	s.Equal("Logged out successfully", body.Message)

	cleared := refreshCookieOf(resp)
	s.Require().NotNil(cleared)
	s.Empty(cleared.Value)

	resp = s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{alice.refresh},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestBlockedUserIsLockedOut() {
	admin := s.registerAdmin("admin@example.com", "admin")
	bob := s.register("bob@example.com", "bobby")

	resp := s.do(request{
		method: http.MethodPatch,
		path:   "/api/users/" + bob.id + "?isBlocked=true",
		token:  admin.token,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: "/api/users/" + bob.id, token: bob.token})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   dto.LoginRequest{Email: bob.email, Password: testPassword},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(request{
		method:  http.MethodGet,
		path:    "/api/auth/refresh-tokens",
		cookies: []*http.Cookie{bob.refresh},
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestUnknownProviderIsNotFound() {
	resp := s.do(request{method: http.MethodGet, path: "/api/auth/google"})
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestProtectedRouteRequiresToken() {
	resp := s.do(request{method: http.MethodGet, path: "/api/products"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("User is not authorized", s.errorMessage(resp))
}
