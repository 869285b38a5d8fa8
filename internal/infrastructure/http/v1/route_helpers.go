package v1

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/infrastructure/http/v1/handlers"
)

// RecordRouteHandler defines the interface for record handlers.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterRecordRoutes registers the standard routes of a record type.
// Records are append-only: there is no update or delete.
//
// Usage:
//
//	handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*payment.Payment, dto.CreatePaymentRequest]{...})
//	RegisterRecordRoutes(api.Group("/payments"), handler, audit, "payment")
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler, audit *handlers.AuditHandler, entityType string) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	if audit != nil {
		group.GET("/:id/history", audit.History(entityType))
	}
}
