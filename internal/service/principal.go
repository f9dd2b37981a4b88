package service

import "context"

type contextKey string

const ownerKey contextKey = "owner"

// AnonymousOwner owns every conversation when auth is disabled.
const AnonymousOwner = "anonymous"

// WithOwner stores the authenticated principal in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFromContext extracts the authenticated principal from context.
// Requests that never passed the auth middleware are anonymous.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerKey).(string); ok && v != "" {
		return v
	}
	return AnonymousOwner
}
