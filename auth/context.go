package auth

import "context"

// contextKey is a private type for context keys so they cannot collide with
// keys from other packages.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// Identity is the verified acting identity of a request, resolved from the
// session token by the middleware.
type Identity struct {
	UserID int
	Email  string
}

// NewContextWithIdentity returns a child context carrying the identity.
func NewContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the verified identity from the context. The
// second return value reports whether an identity was present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
