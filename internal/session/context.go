package session

import (
	"context"
	"net/http"
)

type tokenKey struct{}
type cartKey struct{}

// WithToken adds a backend auth token to the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext retrieves the backend auth token from the context.
// An empty string means the caller is a guest.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// WithCartID adds the active cart ID to the context.
func WithCartID(ctx context.Context, cartID string) context.Context {
	return context.WithValue(ctx, cartKey{}, cartID)
}

// CartIDFromContext retrieves the active cart ID from the context.
// An empty string means no cart exists yet.
func CartIDFromContext(ctx context.Context) string {
	cartID, _ := ctx.Value(cartKey{}).(string)
	return cartID
}

// Middleware copies the session cookies into the request context so
// downstream backend calls can attach the bearer token and tool calls can
// resolve the active cart. Missing cookies are not errors; guest flows
// proceed without them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token := AuthToken(r); token != "" {
			ctx = WithToken(ctx, token)
		}
		if cartID := CartID(r); cartID != "" {
			ctx = WithCartID(ctx, cartID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
