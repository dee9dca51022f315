package auth

import "context"

// Principal is an authenticated caller's identity as seen by the core:
// a subject plus the role set consumed by the authorization policy.
type Principal struct {
	Subject string
	Roles   []Role
}

type principalCtxKey struct{}

// NewContext returns a context carrying the principal.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// FromContext extracts the principal from the context, if present.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}
