// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext identifies the clerk submitting a form.
// Authentication happens upstream; the gateway forwards the resolved clerk.
type UserContext struct {
	UserID string

	// Department the clerk files requests for, if the gateway knows it.
	Department string
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

// GetUserID returns the clerk id from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetDepartment returns the clerk's department or empty string.
func GetDepartment(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Department
	}
	return ""
}
