package platform

import "context"

type tokenKey struct{}

// WithToken returns a context carrying the backend bearer token for a
// single user's request. Auth travels per-request instead of living in
// ambient client state, since one bot process serves many sessions.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext extracts the bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
