package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/oauth"
	"github.com/prperemyshlev/statboard/internal/service"
	"github.com/prperemyshlev/statboard/internal/utils"
)

const (
	refreshCookie = "jwt-refresh"
	stateCookie   = "oauth-state"
	stateMaxAge   = 5 * time.Minute

	msgLoggedOut = "Logged out successfully"
)

// OAuthProviders runs the authorization code flow for federated login
type OAuthProviders interface {
	Enabled(p domain.Provider) bool
	AuthCodeURL(p domain.Provider, state string) (string, error)
	Exchange(ctx context.Context, p domain.Provider, code string) (*oauth.Profile, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService   service.AuthService
	providers     OAuthProviders
	oauthTimeout  time.Duration
	secureCookies bool
}

// NewAuthHandler creates a new auth handler. Cookies get the Secure flag when
// secureCookies is set.
func NewAuthHandler(authService service.AuthService, providers OAuthProviders, oauthTimeout time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		providers:     providers,
		oauthTimeout:  oauthTimeout,
		secureCookies: secureCookies,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new local user and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = utils.SanitizeEmail(req.Email)

	tokens, err := h.authService.Register(c.Request.Context(), &req, deviceTag(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respondWithSession(c, tokens)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = utils.SanitizeEmail(req.Email)

	tokens, err := h.authService.Login(c.Request.Context(), &req, deviceTag(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respondWithSession(c, tokens)
}

// ProviderLogin redirects to the consent page of provider
// @Summary Federated login
// @Tags auth
// @Success 302
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/{provider} [get]
func (h *AuthHandler) ProviderLogin(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.providers.Enabled(provider) {
			abortWithError(c, apperror.NotFound("Provider"))
			return
		}

		state := oauth.NewState()
		target, err := h.providers.AuthCodeURL(provider, state)
		if err != nil {
			abortWithError(c, apperror.Internal(err))
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   int(stateMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		c.Redirect(http.StatusFound, target)
	}
}

// ProviderCallback completes federated login
// @Summary Federated login callback
// @Tags auth
// @Produce json
// @Success 201 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 408 {object} dto.ErrorResponse
// @Router /auth/{provider}/redirect [get]
func (h *AuthHandler) ProviderCallback(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.providers.Enabled(provider) {
			abortWithError(c, apperror.NotFound("Provider"))
			return
		}

		expected, err := c.Cookie(stateCookie)
		if err != nil || expected == "" || c.Query("state") != expected {
			abortWithError(c, apperror.Unauthorized(apperror.MsgAuthError))
			return
		}
		h.clearCookie(c, stateCookie)

		code := c.Query("code")
		if code == "" {
			abortWithError(c, apperror.Unauthorized(apperror.MsgAuthError))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.oauthTimeout)
		defer cancel()

		profile, err := h.providers.Exchange(ctx, provider, code)
		if err != nil {
			if ctx.Err() != nil {
				err = errors.Join(err, ctx.Err())
			}
			abortWithError(c, providerError(err))
			return
		}

		tokens, err := h.authService.LoginWithProfile(ctx, profile, deviceTag(c))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = apperror.Wrap(err, apperror.CodeTimeout, apperror.MsgTimeout)
			}
			abortWithError(c, err)
			return
		}

		h.respondWithSession(c, tokens)
	}
}

// RefreshTokens rotates the refresh token from the cookie
// @Summary Refresh tokens
// @Description Exchange the refresh cookie for a new token pair
// @Tags auth
// @Produce json
// @Success 201 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh-tokens [get]
func (h *AuthHandler) RefreshTokens(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		abortWithError(c, apperror.Unauthorized(apperror.MsgUnauthorized))
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), refreshToken, deviceTag(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respondWithSession(c, tokens)
}

// Logout revokes the refresh token from the cookie
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusOK, dto.SuccessResponse{Message: msgLoggedOut})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		abortWithError(c, err)
		return
	}

	h.clearCookie(c, refreshCookie)
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: msgLoggedOut})
}

func (h *AuthHandler) respondWithSession(c *gin.Context, tokens *domain.SessionTokens) {
	expires := tokens.RefreshToken.ExpiresAt
	if exp, err := utils.ExpiryOf(tokens.RefreshToken.Token); err == nil {
		expires = exp
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookie,
		Value:    tokens.RefreshToken.Token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(http.StatusCreated, dto.AuthResponse{AccessToken: tokens.AccessToken})
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func providerError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeTimeout, apperror.MsgTimeout)
	case errors.Is(err, oauth.ErrIncompleteProfile):
		return apperror.Wrap(err, apperror.CodeUnauthorized, "Email and username must be filled")
	case errors.Is(err, oauth.ErrUnknownProvider):
		return apperror.Wrap(err, apperror.CodeNotFound, "Provider "+apperror.MsgNotFound)
	default:
		return apperror.Wrap(err, apperror.CodeUnauthorized, apperror.MsgAuthError)
	}
}
