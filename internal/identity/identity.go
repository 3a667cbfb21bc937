// Package identity carries the authenticated principal of a request through
// context.Context. Nothing here is global; a principal lives exactly as long
// as the request context that holds it.
package identity

import "context"

// Principal is the identity reconstructed from a verified access token.
type Principal struct {
	Subject string
	Claims  map[string]interface{}
}

// Username returns the "username" claim or "".
func (p Principal) Username() string {
	s, _ := p.Claims["username"].(string)
	return s
}

// Role returns the "role" claim or "".
func (p Principal) Role() string {
	s, _ := p.Claims["role"].(string)
	return s
}

type ctxKey struct{}

// WithPrincipal returns a child of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, false
	}
	return p, true
}
