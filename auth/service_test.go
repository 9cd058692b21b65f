package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/config"
)

// fakeCredentialStore is an in-memory CredentialStore for service tests.
type fakeCredentialStore struct {
	users         map[int]*User
	byEmail       map[string]int
	tokens        map[string]*RefreshToken
	nextUserID    int
	nextTokenID   int
	incrementErr  error
	lockCalls     int
	revokedTokens []int
}

func newFakeStore() *fakeCredentialStore {
	return &fakeCredentialStore{
		users:   make(map[int]*User),
		byEmail: make(map[string]int),
		tokens:  make(map[string]*RefreshToken),
	}
}

func (f *fakeCredentialStore) addUser(t *testing.T, email, password string, mutate func(*User)) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	f.nextUserID++
	now := time.Now()
	user := &User{
		ID:           f.nextUserID,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mutate != nil {
		mutate(user)
	}
	f.users[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return user
}

func (f *fakeCredentialStore) FindByEmail(_ context.Context, email string) (*User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *f.users[id]
	return &u, nil
}

func (f *fakeCredentialStore) FindByID(_ context.Context, id int) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeCredentialStore) CreateUser(_ context.Context, email, password string, name *string) (*User, error) {
	if _, exists := f.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	f.nextUserID++
	now := time.Now()
	user := &User{
		ID:           f.nextUserID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[user.ID] = user
	f.byEmail[email] = user.ID
	copied := *user
	return &copied, nil
}

func (f *fakeCredentialStore) IncrementLoginAttempts(_ context.Context, userID int) (int, error) {
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	u, ok := f.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.LoginAttempts++
	return u.LoginAttempts, nil
}

func (f *fakeCredentialStore) LockAccount(_ context.Context, userID int, until time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	f.lockCalls++
	u.LockedUntil = &until
	u.LoginAttempts = 0
	return nil
}

func (f *fakeCredentialStore) RecordLogin(_ context.Context, userID int, at time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.LoginAttempts = 0
	u.LastLogin = &at
	return nil
}

func (f *fakeCredentialStore) CreateRefreshToken(_ context.Context, token *RefreshToken) error {
	f.nextTokenID++
	token.ID = f.nextTokenID
	token.CreatedAt = time.Now()
	copied := *token
	f.tokens[token.Token] = &copied
	return nil
}

func (f *fakeCredentialStore) FindRefreshToken(_ context.Context, tokenValue string) (*RefreshToken, error) {
	rt, ok := f.tokens[tokenValue]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	copied := *rt
	return &copied, nil
}

func (f *fakeCredentialStore) RevokeRefreshToken(_ context.Context, id int, reason string) error {
	for _, rt := range f.tokens {
		if rt.ID == id {
			now := time.Now()
			rt.IsRevoked = true
			rt.RevokedAt = &now
			rt.RevokedReason = &reason
			f.revokedTokens = append(f.revokedTokens, id)
			return nil
		}
	}
	return ErrRefreshTokenNotFound
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-secret",
		TokenDuration:        time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
		MaxLoginAttempts:     4,
		LockoutDuration:      15 * time.Minute,
	}
}

func newTestService(store *fakeCredentialStore) *AuthService {
	return NewAuthService(store, testAuthConfig())
}

func errType(t *testing.T, err error) apperror.ErrorType {
	t.Helper()
	appErr, ok := apperror.FromError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	return appErr.Type
}

func TestLoginMissingCredentials(t *testing.T) {
	svc := newTestService(newFakeStore())

	for _, req := range []LoginRequest{
		{Email: "", Password: "secret"},
		{Email: "a@b.c", Password: ""},
		{},
	} {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, apperror.MissingCredentialsError, errType(t, err))
		assert.EqualError(t, err, "Email and password are required")
	}
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "known@example.com", "correct-horse", nil)
	svc := newTestService(store)

	_, errUnknown := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	_, errWrongPw := svc.Login(context.Background(), LoginRequest{Email: "known@example.com", Password: "battery-staple"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.Equal(t, apperror.InvalidCredentialsError, errType(t, errUnknown))
	assert.Equal(t, apperror.InvalidCredentialsError, errType(t, errWrongPw))
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLoginDisabledAccount(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "off@example.com", "secret", func(u *User) { u.IsActive = false })
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "off@example.com", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, apperror.AccountDisabledError, errType(t, err))
	assert.EqualError(t, err, "Account is deactivated")
}

func TestLoginLockoutAtThreshold(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, "victim@example.com", "secret", nil)
	svc := newTestService(store)
	req := LoginRequest{Email: "victim@example.com", Password: "wrong"}

	before := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, apperror.InvalidCredentialsError, errType(t, err), "attempt %d should not lock", i+1)
	}
	assert.Equal(t, 3, store.users[user.ID].LoginAttempts)

	// The fourth failure triggers the lock and already reports it.
	_, err := svc.Login(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperror.AccountLockedError, errType(t, err))
	assert.EqualError(t, err, "Too many failed login attempts. Account locked for 15 minutes.")

	locked := store.users[user.ID]
	assert.Equal(t, 0, locked.LoginAttempts, "counter resets at lock time")
	require.NotNil(t, locked.LockedUntil)
	assert.WithinDuration(t, before.Add(15*time.Minute), *locked.LockedUntil, 5*time.Second)
	assert.Equal(t, 1, store.lockCalls)
}

func TestLoginLockedAccountRejectsCorrectPassword(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "locked@example.com", "secret", func(u *User) {
		until := time.Now().Add(10 * time.Minute)
		u.LockedUntil = &until
	})
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "locked@example.com", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, apperror.AccountLockedError, errType(t, err))
	assert.EqualError(t, err, "Account is temporarily locked. Please try again later.")
}

func TestLoginExpiredLockBehavesAsUnlocked(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, "was-locked@example.com", "secret", func(u *User) {
		until := time.Now().Add(-time.Minute)
		u.LockedUntil = &until
	})
	svc := newTestService(store)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "was-locked@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotNil(t, store.users[user.ID].LastLogin)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, "slow-typer@example.com", "secret", nil)
	svc := newTestService(store)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "slow-typer@example.com", Password: "wrong"})
		require.Error(t, err)
	}
	require.Equal(t, 3, store.users[user.ID].LoginAttempts)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "slow-typer@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 0, store.users[user.ID].LoginAttempts)

	// A fresh failure starts counting from one again.
	_, err = svc.Login(context.Background(), LoginRequest{Email: "slow-typer@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidCredentialsError, errType(t, err))
	assert.Equal(t, 1, store.users[user.ID].LoginAttempts)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, "token@example.com", "secret", nil)
	svc := newTestService(store)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "token@example.com", Password: "secret"})
	require.NoError(t, err)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "token@example.com", claims.Email)
	assert.Equal(t, "billtrack", claims.Issuer)

	// The refresh token is persisted alongside.
	rt, err := store.FindRefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, rt.UserID)
	assert.False(t, rt.IsRevoked)

	// The user payload never carries credential material.
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "token@example.com", resp.User.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "taken@example.com", "secret", nil)
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "taken@example.com", Password: "other"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflictError(err))
	assert.EqualError(t, err, "Email already registered")
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	user, err := svc.Register(context.Background(), RegisterRequest{Email: "new@example.com", Password: "cleartext"})
	require.NoError(t, err)

	stored := store.users[user.ID]
	assert.NotEqual(t, "cleartext", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("cleartext")))
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "rotate@example.com", "secret", nil)
	svc := newTestService(store)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "rotate@example.com", Password: "secret"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	old, err := store.FindRefreshToken(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.True(t, old.IsRevoked)
	require.NotNil(t, old.RevokedReason)
	assert.Equal(t, "rotated", *old.RevokedReason)

	// Replaying the rotated token fails.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidTokenError, errType(t, err))
}

func TestRefreshExpiredToken(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, "stale@example.com", "secret", nil)
	svc := newTestService(store)

	rt := &RefreshToken{
		UserID:    user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateRefreshToken(context.Background(), rt))

	_, err := svc.Refresh(context.Background(), "stale-token")
	require.Error(t, err)
	assert.Equal(t, apperror.ExpiredTokenError, errType(t, err))
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Refresh(context.Background(), "never-issued")
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidTokenError, errType(t, err))
}
