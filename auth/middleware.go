package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/config"
)

// JWTMiddleware verifies the bearer token on every protected request and puts
// the resolved identity into the request context. Verification is stateless:
// signature and expiry checks only, no database lookup.
//
// Failure modes are distinct: a missing header, a malformed or badly signed
// token, and an expired token each map to their own error type.
func JWTMiddleware(cfg *config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, apperror.NewMissingTokenError("Authorization header is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, r, apperror.NewInvalidTokenError("Authorization header format must be Bearer {token}", nil))
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					WriteError(w, r, apperror.NewExpiredTokenError("Token has expired", err))
					return
				}
				WriteError(w, r, apperror.NewInvalidTokenError("Invalid token", err))
				return
			}
			if !token.Valid || claims.UserID == 0 {
				WriteError(w, r, apperror.NewInvalidTokenError("Invalid token", nil))
				return
			}

			ctx := NewContextWithIdentity(r.Context(), Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
