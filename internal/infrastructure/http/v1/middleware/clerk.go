package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "backoffice/internal/core/context"
)

// Headers set by the upstream gateway after it authenticates the clerk.
const (
	HeaderClerkID         = "X-Clerk-ID"
	HeaderClerkDepartment = "X-Clerk-Department"
)

// Clerk records the submitting clerk on the request context.
// Requests without the header proceed anonymously.
func Clerk() gin.HandlerFunc {
	return func(c *gin.Context) {
		if clerk := strings.TrimSpace(c.GetHeader(HeaderClerkID)); clerk != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID:     clerk,
				Department: strings.TrimSpace(c.GetHeader(HeaderClerkDepartment)),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
