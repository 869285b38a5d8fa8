package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// Version is set at build time.
var Version = "0.1.0"

const pingTimeout = 2 * time.Second

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db         Pinger
	pool       *postgres.Pool // nil in tests
	watermarks bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool *postgres.Pool, watermarks bool) *HealthHandler {
	h := &HealthHandler{pool: pool, watermarks: watermarks}
	if pool != nil {
		h.db = pool
	}
	return h
}

// Live handles liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles readiness probe.
// GET /health/ready
//
// An unreachable database does not block record creation (references fall
// back to timestamps) but the instance reports itself degraded.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": gin.H{"database": "not configured"}})
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		logger.Warn(ctx, "readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": gin.H{"database": "unreachable"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": gin.H{"database": "healthy"}})
}

// Info returns build, identifier and pool information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	families := identifier.Sorted()
	keys := make([]identifier.Key, 0, len(families))
	for _, fam := range families {
		keys = append(keys, fam.Key)
	}

	info := gin.H{
		"app":     "backoffice",
		"version": Version,
		"identifiers": gin.H{
			"families":   keys,
			"watermarks": h.watermarks,
		},
	}
	if h.pool != nil {
		stat := h.pool.Stat()
		info["database"] = gin.H{
			"total_conns":    stat.TotalConns(),
			"acquired_conns": stat.AcquiredConns(),
			"idle_conns":     stat.IdleConns(),
			"max_conns":      stat.MaxConns(),
		}
	}
	c.JSON(http.StatusOK, info)
}
