package dto

// AuthResponse is returned by every endpoint that opens a session
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}
