// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// SystemActor is recorded as the performer when no user is attached.
const SystemActor = "system"

// UserContext identifies who performs a use case.
type UserContext struct {
	UserID    string
	Roles     []string
	SessionID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// Actor returns the user id, falling back to SystemActor.
func Actor(ctx context.Context) string {
	if id := GetUserID(ctx); id != "" {
		return id
	}
	return SystemActor
}
