package auth

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"strongpassword123"`
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Email    string  `json:"email" example:"user@example.com"`
	Password string  `json:"password" example:"strongpassword123"`
	Name     *string `json:"name,omitempty" example:"Jane Doe"`
}

// RefreshRequest represents the token refresh request payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" example:"9f2d1c..."`
}

// LoginResponse is the payload returned on successful login or refresh: the
// signed session token, a rotating refresh token, and the sanitized user.
type LoginResponse struct {
	Token        string     `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string     `json:"refreshToken" example:"9f2d1c..."`
	User         PublicUser `json:"user"`
}
