// Package auth handles authentication: credential verification with
// progressive account lockout, session-token issuance and verification, and
// refresh-token rotation.
package auth

import "time"

// User represents an account in the system. The password hash carries
// `json:"-"` so no serialization path can ever expose it.
type User struct {
	ID                int        `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Name              *string    `json:"name,omitempty"`
	IsActive          bool       `json:"is_active"`
	EmailVerified     bool       `json:"email_verified"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	LoginAttempts     int        `json:"-"`
	LockedUntil       *time.Time `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RefreshToken is a persisted, revocable credential used to obtain a new
// session token without re-entering a password.
type RefreshToken struct {
	ID            int
	UserID        int
	Token         string
	ExpiresAt     time.Time
	UserAgent     *string
	IPAddress     *string
	IsRevoked     bool
	RevokedAt     *time.Time
	RevokedReason *string
	CreatedAt     time.Time
}

// PublicUser is the outward representation of a User returned by the auth
// endpoints. It carries only identity fields.
type PublicUser struct {
	ID    int     `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Public converts a User to its outward representation.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
