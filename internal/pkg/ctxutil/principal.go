package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller attached to every request. Only the
// id and email travel with the request; actions written to the abstraction
// reform log are attributed from this value.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	val := ctx.Value(principalKey{})
	if p, ok := val.(*Principal); ok {
		return p
	}
	return nil
}
