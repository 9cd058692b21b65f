package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Sentinel errors returned by CredentialStore implementations. The service
// layer translates these into apperror types; raw storage faults pass through
// untranslated.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// CredentialStore holds user identity, password hashes and lockout counters.
// Password hashing is an invariant of the store's write boundary: CreateUser
// accepts cleartext and persists only the bcrypt hash, so no caller can
// accidentally store a password unhashed.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	CreateUser(ctx context.Context, email, password string, name *string) (*User, error)

	// IncrementLoginAttempts bumps the attempt counter in a single atomic
	// statement and returns the post-increment value.
	IncrementLoginAttempts(ctx context.Context, userID int) (int, error)
	// LockAccount sets the lock-until timestamp and resets the counter to zero.
	LockAccount(ctx context.Context, userID int, until time.Time) error
	// RecordLogin resets the counter and stamps last_login.
	RecordLogin(ctx context.Context, userID int, at time.Time) error

	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id int, reason string) error
}

// PostgresCredentialStore is the pgx-backed CredentialStore.
type PostgresCredentialStore struct {
	db *pgxpool.Pool
}

// NewPostgresCredentialStore creates a CredentialStore backed by the given pool.
func NewPostgresCredentialStore(db *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

const userColumns = `id, email, password_hash, name, is_active, email_verified,
	last_login, login_attempts, locked_until, password_changed_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.IsActive,
		&user.EmailVerified,
		&user.LastLogin,
		&user.LoginAttempts,
		&user.LockedUntil,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks up a user by exact email match. Matching is
// case-sensitive as stored; no folding is applied.
func (s *PostgresCredentialStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.db.QueryRow(ctx, query, email))
}

// FindByID looks up a user by primary key.
func (s *PostgresCredentialStore) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRow(ctx, query, id))
}

// CreateUser persists a new account. The cleartext password is hashed here,
// at the write boundary, never by callers.
func (s *PostgresCredentialStore) CreateUser(ctx context.Context, email, password string, name *string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO users (email, password_hash, name)
	          VALUES ($1, $2, $3)
	          RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRow(ctx, query, email, string(hashed), name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// IncrementLoginAttempts runs a single UPDATE .. RETURNING so concurrent
// failed attempts cannot lose increments.
func (s *PostgresCredentialStore) IncrementLoginAttempts(ctx context.Context, userID int) (int, error) {
	query := `UPDATE users
	          SET login_attempts = login_attempts + 1, updated_at = now()
	          WHERE id = $1
	          RETURNING login_attempts`
	var attempts int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return attempts, nil
}

// LockAccount starts a lockout window. The counter resets to zero at lock
// time; unlock is implicit once the timestamp passes.
func (s *PostgresCredentialStore) LockAccount(ctx context.Context, userID int, until time.Time) error {
	query := `UPDATE users
	          SET locked_until = $2, login_attempts = 0, updated_at = now()
	          WHERE id = $1`
	_, err := s.db.Exec(ctx, query, userID, until)
	return err
}

// RecordLogin clears the attempt counter and stamps last_login.
func (s *PostgresCredentialStore) RecordLogin(ctx context.Context, userID int, at time.Time) error {
	query := `UPDATE users
	          SET login_attempts = 0, last_login = $2, updated_at = now()
	          WHERE id = $1`
	_, err := s.db.Exec(ctx, query, userID, at)
	return err
}

// CreateRefreshToken persists a refresh token.
func (s *PostgresCredentialStore) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at, user_agent, ip_address)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	return s.db.QueryRow(ctx, query,
		token.UserID, token.Token, token.ExpiresAt, token.UserAgent, token.IPAddress,
	).Scan(&token.ID, &token.CreatedAt)
}

// FindRefreshToken looks up a refresh token by its opaque value.
func (s *PostgresCredentialStore) FindRefreshToken(ctx context.Context, tokenValue string) (*RefreshToken, error) {
	query := `SELECT id, user_id, token, expires_at, user_agent, ip_address,
	                 is_revoked, revoked_at, revoked_reason, created_at
	          FROM refresh_tokens WHERE token = $1`
	var rt RefreshToken
	err := s.db.QueryRow(ctx, query, tokenValue).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.UserAgent,
		&rt.IPAddress,
		&rt.IsRevoked,
		&rt.RevokedAt,
		&rt.RevokedReason,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks a refresh token revoked with a reason.
func (s *PostgresCredentialStore) RevokeRefreshToken(ctx context.Context, id int, reason string) error {
	query := `UPDATE refresh_tokens
	          SET is_revoked = true, revoked_at = now(), revoked_reason = $2
	          WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id, reason)
	return err
}
