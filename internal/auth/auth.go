// Package auth binds the external authenticator contract: bearer tokens
// issued elsewhere are verified into a stable player identity. No credential
// handling happens here.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizduel/internal/utils"
)

// Principal is the authenticated player as the engine sees them.
type Principal struct {
	ID    string
	Email string
}

type ctxKey struct{}

var errInvalidToken = errors.New("invalid token")

// IssueToken signs a player token. Used by tests and development tooling; in
// production tokens come from the external user service with the same shape.
func IssueToken(playerID, email string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   playerID,
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken parses and validates a player token into a Principal.
func VerifyToken(tokenString string, secret []byte) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, errInvalidToken
	}
	email, _ := claims["email"].(string)
	return Principal{ID: sub, Email: email}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// Principal on the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if header == "" || tokenString == header {
				utils.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			principal, err := VerifyToken(tokenString, secret)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
