package auth

import "context"

// HeaderName carries the token on every authenticated request.
const HeaderName = "x-auth-token"

// Identity is the verified caller. It only ever comes from a checked token.
type Identity struct {
	AccountID string
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by the access gate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.AccountID == "" {
		return Identity{}, false
	}
	return id, true
}
