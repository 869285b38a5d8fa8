package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/records/disbursement"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// DisbursementDecider moves a request through its approval workflow.
type DisbursementDecider interface {
	Transition(ctx context.Context, reqID id.ID, version int, next disbursement.Status) (*disbursement.Request, error)
}

// DisbursementHandler handles approval decisions.
type DisbursementHandler struct {
	*BaseHandler
	service DisbursementDecider
}

// NewDisbursementHandler creates a new disbursement handler.
func NewDisbursementHandler(base *BaseHandler, service DisbursementDecider) *DisbursementHandler {
	return &DisbursementHandler{BaseHandler: base, service: service}
}

// Decide handles POST /disbursements/:id/status.
// The version from the last read guards against concurrent decisions.
func (h *DisbursementHandler) Decide(c *gin.Context) {
	reqID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Transition(c.Request.Context(), reqID, req.Version, disbursement.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, updated)
}
