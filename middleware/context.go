package middleware

import (
	"context"

	"github.com/MrEthical07/aura"
)

type identityContextKey struct{}

func withIdentity(ctx context.Context, id aura.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the operator admitted by [Guard].
func IdentityFromContext(ctx context.Context) (aura.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(aura.Identity)
	return id, ok
}

// MustIdentity is IdentityFromContext for handlers that only run behind [Guard].
// It panics with aura.ErrSessionNotProvisioned otherwise.
func MustIdentity(ctx context.Context) aura.Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic(aura.ErrSessionNotProvisioned)
	}
	return id
}
