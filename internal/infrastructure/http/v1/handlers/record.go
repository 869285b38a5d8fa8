// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/records/receipt"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// RecordReader is the read side of a record service.
type RecordReader[T domain.Referenced] interface {
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByReference(ctx context.Context, reference string) (T, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// RecordCreator is the write side of a record service.
type RecordCreator[T domain.Referenced] interface {
	Create(ctx context.Context, rec T) error
}

// CreateFunc turns a request body into a stored record.
type CreateFunc[T domain.Referenced, CreateDTO any] func(ctx context.Context, req CreateDTO) (T, error)

// CreateWith maps the request with mapFn and hands the record to svc.
func CreateWith[T domain.Referenced, CreateDTO any](svc RecordCreator[T], mapFn func(CreateDTO) (T, error)) CreateFunc[T, CreateDTO] {
	return func(ctx context.Context, req CreateDTO) (T, error) {
		rec, err := mapFn(req)
		if err != nil {
			return rec, err
		}
		if err := svc.Create(ctx, rec); err != nil {
			var zero T
			return zero, err
		}
		return rec, nil
	}
}

// RecordHandler provides generic HTTP handlers for referenced records.
type RecordHandler[T domain.Referenced, CreateDTO any] struct {
	*BaseHandler
	reader RecordReader[T]
	create CreateFunc[T, CreateDTO]
}

// RecordHandlerConfig configures the record handler.
type RecordHandlerConfig[T domain.Referenced, CreateDTO any] struct {
	Reader RecordReader[T]
	Create CreateFunc[T, CreateDTO]
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler[T domain.Referenced, CreateDTO any](
	base *BaseHandler,
	cfg RecordHandlerConfig[T, CreateDTO],
) *RecordHandler[T, CreateDTO] {
	return &RecordHandler[T, CreateDTO]{
		BaseHandler: base,
		reader:      cfg.Reader,
		create:      cfg.Create,
	}
}

// List handles GET /{records} - list with filtering and pagination.
func (h *RecordHandler[T, CreateDTO]) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.reader.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /{records}/:id. The parameter may also be a reference
// ("PMT-2025-001").
func (h *RecordHandler[T, CreateDTO]) Get(c *gin.Context) {
	ctx := c.Request.Context()
	param := strings.TrimSpace(c.Param("id"))

	var (
		rec T
		err error
	)
	if recID, parseErr := id.Parse(param); parseErr == nil {
		rec, err = h.reader.GetByID(ctx, recID)
	} else {
		if param == "" {
			h.Error(c, apperror.NewValidation("id or reference is required"))
			return
		}
		rec, err = h.reader.GetByReference(ctx, param)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Create handles POST /{records}. The response carries the assigned reference.
func (h *RecordHandler[T, CreateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, rec)
}

// ReceiptIssuer issues official receipts for received payments.
type ReceiptIssuer interface {
	IssueForPayment(ctx context.Context, paymentID id.ID, receivedFrom string) (*receipt.OfficialReceipt, error)
}

// IssueReceipt creates receipts from the payment they acknowledge; amount
// and currency are copied from the payment.
func IssueReceipt(svc ReceiptIssuer) CreateFunc[*receipt.OfficialReceipt, dto.CreateReceiptRequest] {
	return func(ctx context.Context, req dto.CreateReceiptRequest) (*receipt.OfficialReceipt, error) {
		paymentID, err := id.Parse(req.PaymentID)
		if err != nil {
			return nil, apperror.NewValidation("invalid payment id").WithDetail("field", "paymentId")
		}
		return svc.IssueForPayment(ctx, paymentID, req.ReceivedFrom)
	}
}
