// Package oauth runs the authorization code flow against Google, GitHub and
// Yandex and normalizes the returned profiles.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prperemyshlev/statboard/internal/config"
	"github.com/prperemyshlev/statboard/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var (
	// ErrUnknownProvider is returned for providers that are not configured
	ErrUnknownProvider = errors.New("unknown oauth provider")

	// ErrIncompleteProfile is returned when the provider omits email or name
	ErrIncompleteProfile = errors.New("email and username must be filled")
)

const profileSizeLimit = 1 << 20

// Profile is the provider-independent view of a federated identity
type Profile struct {
	Email    string
	Name     string
	Image    *string
	Provider domain.Provider
}

// provider is one row of the lookup table
type provider struct {
	config     *oauth2.Config
	profileURL string
	authScheme string
	// normalize turns the raw profile document into a Profile
	normalize func(ctx context.Context, f *fetcher, raw []byte) (*Profile, error)
}

// Registry holds the configured providers
type Registry struct {
	providers map[domain.Provider]*provider
	client    *http.Client
}

// NewRegistry registers every provider that has credentials configured
func NewRegistry(cfg config.OAuthConfig, client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}

	r := &Registry{providers: make(map[domain.Provider]*provider), client: client}

	if cfg.Google.Enabled() {
		r.providers[domain.ProviderGoogle] = &provider{
			config: oauthConfig(cfg.Google, endpoints.Google,
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile"),
			profileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			authScheme: "Bearer",
			normalize:  normalizeGoogle,
		}
	}

	if cfg.GitHub.Enabled() {
		r.providers[domain.ProviderGitHub] = &provider{
			config:     oauthConfig(cfg.GitHub, endpoints.GitHub, "read:user", "user:email"),
			profileURL: "https://api.github.com/user",
			authScheme: "Bearer",
			normalize:  normalizeGitHub("https://api.github.com/user/emails"),
		}
	}

	if cfg.Yandex.Enabled() {
		r.providers[domain.ProviderYandex] = &provider{
			config:     oauthConfig(cfg.Yandex, endpoints.Yandex, "login:email", "login:info", "login:avatar"),
			profileURL: "https://login.yandex.ru/info?format=json",
			authScheme: "OAuth",
			normalize:  normalizeYandex,
		}
	}

	return r
}

func oauthConfig(p config.ProviderConfig, endpoint oauth2.Endpoint, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.CallbackURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// ParseProvider maps a route segment to a provider tag
func ParseProvider(name string) (domain.Provider, bool) {
	switch p := domain.Provider(strings.ToLower(name)); p {
	case domain.ProviderGoogle, domain.ProviderGitHub, domain.ProviderYandex:
		return p, true
	default:
		return "", false
	}
}

// Enabled reports whether the provider is configured
func (r *Registry) Enabled(p domain.Provider) bool {
	_, ok := r.providers[p]
	return ok
}

// NewState returns an unguessable value for the state parameter
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL returns the consent page URL for the provider
func (r *Registry) AuthCodeURL(p domain.Provider, state string) (string, error) {
	prov, ok := r.providers[p]
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrUnknownProvider)
	}
	return prov.config.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for a token and loads the user's profile
func (r *Registry) Exchange(ctx context.Context, p domain.Provider, code string) (*Profile, error) {
	prov, ok := r.providers[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrUnknownProvider)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)

	token, err := prov.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	f := &fetcher{client: r.client, scheme: prov.authScheme, accessToken: token.AccessToken}

	raw, err := f.get(ctx, prov.profileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	profile, err := prov.normalize(ctx, f, raw)
	if err != nil {
		return nil, err
	}
	profile.Provider = p

	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// ValidateProfile rejects profiles without email or name
func ValidateProfile(p *Profile) error {
	if p == nil || strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.Name) == "" {
		return ErrIncompleteProfile
	}
	return nil
}

// fetcher performs authorized GETs against a provider API
type fetcher struct {
	client      *http.Client
	scheme      string
	accessToken string
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", f.scheme+" "+f.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(io.LimitReader(resp.Body, profileSizeLimit))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func normalizeGoogle(_ context.Context, _ *fetcher, raw []byte) (*Profile, error) {
	var doc struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		GivenName     string `json:"given_name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}

	profile := &Profile{Name: doc.GivenName, Image: optional(doc.Picture)}
	if doc.VerifiedEmail {
		profile.Email = doc.Email
	}

	return profile, nil
}

func normalizeGitHub(emailsURL string) func(context.Context, *fetcher, []byte) (*Profile, error) {
	return func(ctx context.Context, f *fetcher, raw []byte) (*Profile, error) {
		var doc struct {
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
			Email     string `json:"email"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode github profile: %w", err)
		}

		profile := &Profile{Email: doc.Email, Name: doc.Login, Image: optional(doc.AvatarURL)}
		if profile.Email != "" {
			return profile, nil
		}

		// private addresses are only listed by the emails endpoint
		body, err := f.get(ctx, emailsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch github emails: %w", err)
		}

		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := json.Unmarshal(body, &emails); err != nil {
			return nil, fmt.Errorf("failed to decode github emails: %w", err)
		}

		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Email = e.Email
				break
			}
		}

		return profile, nil
	}
}

func normalizeYandex(_ context.Context, _ *fetcher, raw []byte) (*Profile, error) {
	var doc struct {
		DefaultEmail    string `json:"default_email"`
		FirstName       string `json:"first_name"`
		DefaultAvatarID string `json:"default_avatar_id"`
		IsAvatarEmpty   bool   `json:"is_avatar_empty"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode yandex profile: %w", err)
	}

	profile := &Profile{Email: doc.DefaultEmail, Name: doc.FirstName}
	if doc.DefaultAvatarID != "" && !doc.IsAvatarEmpty {
		profile.Image = optional(fmt.Sprintf("https://avatars.yandex.net/get-yapic/%s/islands-200", doc.DefaultAvatarID))
	}

	return profile, nil
}
