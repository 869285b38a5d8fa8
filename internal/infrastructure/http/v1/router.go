// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/identifier"
	"backoffice/internal/domain"
	"backoffice/internal/domain/records/contact"
	"backoffice/internal/domain/records/disbursement"
	"backoffice/internal/domain/records/payment"
	"backoffice/internal/domain/records/receipt"
	"backoffice/internal/infrastructure/http/v1/dto"
	"backoffice/internal/infrastructure/http/v1/handlers"
	"backoffice/internal/infrastructure/http/v1/middleware"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/record_repo"
	"backoffice/pkg/logger"
)

// Audit entity types.
const (
	EntityPayment      = "payment"
	EntityReceipt      = "official_receipt"
	EntityContact      = "contact"
	EntityDisbursement = "disbursement_request"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// Issuer assigns references to new records
	Issuer *identifier.Issuer

	// Watermarks is nil when sequence watermarks are disabled
	Watermarks identifier.Watermarks

	// Audit records issued references. Optional.
	Audit *postgres.AuditLog

	// Idempotency enables replay of POST requests carrying X-Idempotency-Key. Optional.
	Idempotency middleware.IdempotencyStore
}

// Services groups the record services served by the API.
type Services struct {
	Payments      *payment.Service
	Receipts      *receipt.Service
	Contacts      *contact.Service
	Disbursements *disbursement.Service
}

// NewServices wires the record services to their PostgreSQL repositories.
func NewServices(txm *postgres.TxManager, issuer *identifier.Issuer, watermarks identifier.Watermarks) *Services {
	payments := payment.NewService(record_repo.NewPaymentRepo(txm), txm, issuer, watermarks)
	return &Services{
		Payments:      payments,
		Receipts:      receipt.NewService(record_repo.NewReceiptRepo(txm), payments, txm, issuer, watermarks),
		Contacts:      contact.NewService(record_repo.NewContactRepo(txm), txm, issuer, watermarks),
		Disbursements: disbursement.NewService(record_repo.NewDisbursementRepo(txm), txm, issuer, watermarks),
	}
}

// RegisterAuditHooks writes every created record and every disbursement
// decision to the audit log.
func (s *Services) RegisterAuditHooks(audit *postgres.AuditLog) {
	s.Payments.Hooks().On(domain.AfterCreate, postgres.RecordHook[*payment.Payment](audit, EntityPayment, postgres.AuditActionCreate))
	s.Receipts.Hooks().On(domain.AfterCreate, postgres.RecordHook[*receipt.OfficialReceipt](audit, EntityReceipt, postgres.AuditActionCreate))
	s.Contacts.Hooks().On(domain.AfterCreate, postgres.RecordHook[*contact.Contact](audit, EntityContact, postgres.AuditActionCreate))
	s.Disbursements.Hooks().On(domain.AfterCreate, postgres.RecordHook[*disbursement.Request](audit, EntityDisbursement, postgres.AuditActionCreate))
	s.Disbursements.OnDecision(postgres.RecordHook[*disbursement.Request](audit, EntityDisbursement, postgres.AuditActionStatus))
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters: Recovery must sit inside ErrorHandler)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Watermarks != nil)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	services := NewServices(cfg.TxManager, cfg.Issuer, cfg.Watermarks)
	var audit handlers.AuditReader
	if cfg.Audit != nil {
		services.RegisterAuditHooks(cfg.Audit)
		audit = cfg.Audit
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Clerk())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}
	RegisterAPI(api, APIConfig{
		Services:   services,
		Generator:  cfg.Issuer.Generator(),
		Watermarks: cfg.Watermarks,
		Audit:      audit,
	})

	return router
}

// APIConfig holds what RegisterAPI serves. Nil services are skipped.
type APIConfig struct {
	Services   *Services
	Generator  identifier.Generator
	Watermarks identifier.Watermarks
	Audit      handlers.AuditReader
}

// RegisterAPI registers the record and identifier endpoints on rg.
func RegisterAPI(rg *gin.RouterGroup, cfg APIConfig) {
	base := handlers.NewBaseHandler()

	var audit *handlers.AuditHandler
	if cfg.Audit != nil {
		audit = handlers.NewAuditHandler(base, cfg.Audit)
	}

	svc := cfg.Services

	// --- PAYMENTS ---
	if svc.Payments != nil {
		handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*payment.Payment, dto.CreatePaymentRequest]{
			Reader: svc.Payments,
			Create: handlers.CreateWith[*payment.Payment](svc.Payments, dto.CreatePaymentRequest.ToEntity),
		})
		RegisterRecordRoutes(rg.Group("/payments"), handler, audit, EntityPayment)
	}

	// --- OFFICIAL RECEIPTS ---
	if svc.Receipts != nil {
		receipts := svc.Receipts
		handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*receipt.OfficialReceipt, dto.CreateReceiptRequest]{
			Reader: receipts,
			Create: handlers.IssueReceipt(receipts),
		})
		RegisterRecordRoutes(rg.Group("/receipts"), handler, audit, EntityReceipt)
	}

	// --- CONTACTS ---
	if svc.Contacts != nil {
		handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*contact.Contact, dto.CreateContactRequest]{
			Reader: svc.Contacts,
			Create: handlers.CreateWith[*contact.Contact](svc.Contacts, dto.CreateContactRequest.ToEntity),
		})
		RegisterRecordRoutes(rg.Group("/contacts"), handler, audit, EntityContact)
	}

	// --- DISBURSEMENT REQUESTS ---
	if svc.Disbursements != nil {
		handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*disbursement.Request, dto.CreateDisbursementRequest]{
			Reader: svc.Disbursements,
			Create: handlers.CreateWith[*disbursement.Request](svc.Disbursements, dto.CreateDisbursementRequest.ToEntity),
		})
		group := rg.Group("/disbursements")
		RegisterRecordRoutes(group, handler, audit, EntityDisbursement)

		decisions := handlers.NewDisbursementHandler(base, svc.Disbursements)
		group.POST("/:id/status", decisions.Decide)
	}

	// --- IDENTIFIERS ---
	idHandler := handlers.NewIdentifierHandler(base, cfg.Generator, cfg.Watermarks)
	ids := rg.Group("/identifiers")
	{
		ids.GET("", idHandler.Families)
		ids.GET("/:family/next", idHandler.Next)
		ids.GET("/:family/watermark", idHandler.Watermark)
		ids.PUT("/:family/watermark", idHandler.SetWatermark)
	}
}
