package domain

import "time"

// TokenClaims represents verified access token claims
type TokenClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Roles  []Role `json:"roles"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the token is expired
func (tc TokenClaims) IsExpired() bool {
	return time.Now().Unix() > tc.Exp
}

// RefreshToken is the persisted, single-use half of a session
type RefreshToken struct {
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"userId" db:"user_id"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SessionTokens is what a login, registration or rotation hands back
type SessionTokens struct {
	AccessToken  string
	RefreshToken RefreshToken
}
