package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/config"
)

// Messages returned by the login flow. Unknown email and wrong password share
// one message by design: the response must not reveal which part failed.
const (
	msgMissingCredentials = "Email and password are required"
	msgInvalidCredentials = "Invalid email or password"
	msgAccountDisabled    = "Account is deactivated"
	msgAccountLocked      = "Account is temporarily locked. Please try again later."
	msgLockoutTriggered   = "Too many failed login attempts. Account locked for 15 minutes."
)

const revokedReasonRotated = "rotated"

// Claims is the JWT payload for session tokens: the user's identity plus the
// standard registered claims. Verification is stateless; no lookup is needed
// to resolve a token back to a user id.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService implements credential verification, the lockout state machine,
// and token issuance.
type AuthService struct {
	store CredentialStore
	cfg   config.AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(store CredentialStore, cfg config.AuthConfig) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// Login verifies the supplied credentials and returns a signed session token
// plus a persisted refresh token.
//
// The lockout state machine: a failed password check increments the account's
// attempt counter atomically. The moment the post-increment counter reaches
// the threshold, the counter resets to zero and a lock-until timestamp is set;
// that triggering request already receives the lockout error. The lock expires
// by itself: once the timestamp is in the past, attempts proceed as if
// unlocked. There is no explicit unlock step.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.NewMissingCredentialsError(msgMissingCredentials)
	}

	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NewInvalidCredentialsError(msgInvalidCredentials)
		}
		log.Printf("storage error looking up user for login: %v", err)
		return nil, apperror.NewStorageError("failed to process login", err)
	}

	if !user.IsActive {
		return nil, apperror.NewAccountDisabledError(msgAccountDisabled)
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperror.NewAccountLockedError(msgAccountLocked)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.registerFailedAttempt(ctx, user, now)
	}

	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, apperror.NewStorageError("failed to record login", err)
	}

	return s.issueTokens(ctx, user)
}

// registerFailedAttempt persists the attempt increment and, at the threshold,
// transitions the account to Locked. All side effects hit the store before
// the error is returned to the caller.
func (s *AuthService) registerFailedAttempt(ctx context.Context, user *User, now time.Time) error {
	attempts, err := s.store.IncrementLoginAttempts(ctx, user.ID)
	if err != nil {
		return apperror.NewStorageError("failed to record login attempt", err)
	}

	if attempts >= s.cfg.MaxLoginAttempts {
		until := now.Add(s.cfg.LockoutDuration)
		if err := s.store.LockAccount(ctx, user.ID, until); err != nil {
			return apperror.NewStorageError("failed to lock account", err)
		}
		return apperror.NewAccountLockedError(msgLockoutTriggered)
	}

	return apperror.NewInvalidCredentialsError(msgInvalidCredentials)
}

// Register creates a new account. The cleartext password never reaches the
// database: the credential store hashes it at its write boundary.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.NewMissingCredentialsError(msgMissingCredentials)
	}

	user, err := s.store.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperror.NewConflictError("Email already registered", nil)
		}
		return nil, apperror.NewStorageError("failed to create user", err)
	}
	return user, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The presented
// token is revoked in the same request (rotation), so a replayed token fails.
func (s *AuthService) Refresh(ctx context.Context, tokenValue string) (*LoginResponse, error) {
	if tokenValue == "" {
		return nil, apperror.NewMissingTokenError("Refresh token is required")
	}

	rt, err := s.store.FindRefreshToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, apperror.NewInvalidTokenError("Invalid refresh token", nil)
		}
		return nil, apperror.NewStorageError("failed to look up refresh token", err)
	}

	if rt.IsRevoked {
		return nil, apperror.NewInvalidTokenError("Invalid refresh token", nil)
	}
	if rt.ExpiresAt.Before(time.Now()) {
		return nil, apperror.NewExpiredTokenError("Refresh token has expired", nil)
	}

	user, err := s.store.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NewInvalidTokenError("Invalid refresh token", nil)
		}
		return nil, apperror.NewStorageError("failed to look up user", err)
	}
	if !user.IsActive {
		return nil, apperror.NewAccountDisabledError(msgAccountDisabled)
	}

	if err := s.store.RevokeRefreshToken(ctx, rt.ID, revokedReasonRotated); err != nil {
		return nil, apperror.NewStorageError("failed to rotate refresh token", err)
	}

	return s.issueTokens(ctx, user)
}

// issueTokens signs a session token and persists a fresh refresh token.
func (s *AuthService) issueTokens(ctx context.Context, user *User) (*LoginResponse, error) {
	signed, err := s.generateToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}

	refresh, err := newRefreshTokenValue()
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue refresh token", err)
	}
	rt := &RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenDuration),
	}
	if err := s.store.CreateRefreshToken(ctx, rt); err != nil {
		return nil, apperror.NewStorageError("failed to persist refresh token", err)
	}

	return &LoginResponse{
		Token:        signed,
		RefreshToken: refresh,
		User:         user.Public(),
	}, nil
}

// generateToken signs an HS256 session token carrying user id and email.
func (s *AuthService) generateToken(user *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "billtrack",
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// newRefreshTokenValue produces 32 bytes of cryptographic randomness as hex.
func newRefreshTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
