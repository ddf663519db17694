package auth

import "context"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	IsHost bool
}

type principalKey struct{}

// WithPrincipal stores p in ctx for the lifetime of one request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}
