package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTraceContext_KeepsSuppliedIDs(t *testing.T) {
	tc := NewTraceContext("trace-1", "")

	assert.Equal(t, "trace-1", tc.TraceID)
	assert.NotEmpty(t, tc.RequestID)
	assert.Len(t, tc.SpanID, 16)
}

func TestUserContext(t *testing.T) {
	ctx := WithUser(context.Background(), &UserContext{UserID: "clerk-1", Department: "Finance"})

	assert.Equal(t, "clerk-1", GetUserID(ctx))
	assert.Equal(t, "Finance", GetDepartment(ctx))
	assert.Equal(t, "", GetUserID(context.Background()))
	assert.Equal(t, "", GetDepartment(context.Background()))
}
