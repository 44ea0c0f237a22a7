// Package domain defines the MCP tool schemas and handlers for ad
// account reporting, budget management, and cache administration.
package domain

import "context"

type userKey struct{}

// WithUser stores the authenticated caller's id in the context.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the authenticated caller's id, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}
