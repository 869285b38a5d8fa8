package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/id"
	"backoffice/internal/infrastructure/storage/postgres"
)

// AuditReader reads the issuance trail.
type AuditReader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler serves record history.
type AuditHandler struct {
	*BaseHandler
	audit AuditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit AuditReader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// History returns GET /{records}/:id/history for entityType.
func (h *AuditHandler) History(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		recID, ok := h.ParseID(c)
		if !ok {
			return
		}

		limit := 50
		var query struct {
			Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
		}
		if !h.BindQuery(c, &query) {
			return
		}
		if query.Limit > 0 {
			limit = query.Limit
		}

		entries, err := h.audit.History(c.Request.Context(), entityType, recID, limit)
		if err != nil {
			h.Error(c, err)
			return
		}
		if entries == nil {
			entries = []postgres.AuditEntry{}
		}
		h.OK(c, gin.H{"items": entries})
	}
}
