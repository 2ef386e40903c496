package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/recipe-share/internal/model"
)

// contextKey is private to this package so no other package can read or
// shadow the authenticated user stored in a request context.
type contextKey string

const userKey contextKey = "user"

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("auth: missing bearer token")

// Identifier turns a raw bearer token into the user it belongs to.
// service.AuthService implements it by resolving the token and loading the
// user by email, so a token for a deleted account is rejected.
type Identifier interface {
	Identify(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth is a middleware that rejects requests without a valid bearer
// token with 401 before the handler (and any store) is reached.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(id Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := identify(r, id)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"could not validate credentials"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func identify(r *http.Request, id Identifier) (*model.User, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return id.Identify(r.Context(), token)
}
