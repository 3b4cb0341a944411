package auth

import "context"

type contextKey struct {
	name string
}

var ownerCtxKey = &contextKey{"Owner"}

// WithOwner stores the resolved owner identity on the request context.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerCtxKey, ownerID)
}

func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerCtxKey).(string)
	return ownerID, ok && ownerID != ""
}
