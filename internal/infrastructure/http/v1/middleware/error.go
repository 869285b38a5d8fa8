package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/pkg/logger"
)

// ErrorHandler renders the last handler error as JSON.
//
// Reference generation failures are logged in full but reach the client
// only as their code and apperror.RetryMessage.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": gin.H{"request_id": appctx.GetRequestID(ctx)},
			})
			return
		}

		if apperror.IsIdentifierError(appErr) {
			logger.Error(ctx, "reference generation failed",
				"code", appErr.Code,
				"details", appErr.Details,
				"error", err,
			)
			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": apperror.RetryMessage,
				"details": gin.H{"request_id": appctx.GetRequestID(ctx)},
			})
			return
		}

		if appErr.Err != nil {
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}
		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		})
	}
}
