// Package actor resolves the acting profile from a bearer token.
package actor

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
)

type contextKey struct{}

// TokenValidator turns a bearer token into a profile id.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// token subject in the request context.
func Middleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respond.Error(w, r, auth.ErrMissingToken)
				return
			}

			id, err := tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

func WithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID returns the acting profile id. It is uuid.Nil outside Middleware.
func ID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(contextKey{}).(uuid.UUID)
	return id
}
