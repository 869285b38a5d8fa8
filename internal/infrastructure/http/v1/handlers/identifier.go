package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/http/v1/dto"
	"backoffice/pkg/logger"
)

// IdentifierHandler exposes the identifier families for inspection and
// watermark maintenance.
type IdentifierHandler struct {
	*BaseHandler
	generator  identifier.Generator
	watermarks identifier.Watermarks // nil when watermarks are disabled
	clock      func() time.Time
}

// NewIdentifierHandler creates a new identifier handler.
func NewIdentifierHandler(base *BaseHandler, gen identifier.Generator, watermarks identifier.Watermarks) *IdentifierHandler {
	return &IdentifierHandler{
		BaseHandler: base,
		generator:   gen,
		watermarks:  watermarks,
		clock:       time.Now,
	}
}

func (h *IdentifierHandler) family(c *gin.Context) (identifier.Family, bool) {
	fam, err := identifier.Lookup(identifier.Key(c.Param("family")))
	if err != nil {
		h.Error(c, err)
		return identifier.Family{}, false
	}
	return fam, true
}

// Families handles GET /identifiers.
func (h *IdentifierHandler) Families(c *gin.Context) {
	now := h.clock()
	families := identifier.Sorted()
	out := make([]dto.FamilyResponse, 0, len(families))
	for _, fam := range families {
		out = append(out, dto.FamilyResponse{
			Family:  fam,
			Example: fam.Format(fam.BucketKey(now), 1),
		})
	}
	h.OK(c, out)
}

// Next handles GET /identifiers/:family/next.
// The value is a preview: nothing is reserved.
func (h *IdentifierHandler) Next(c *gin.Context) {
	fam, ok := h.family(c)
	if !ok {
		return
	}

	at := h.clock()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("at must be an RFC 3339 timestamp").WithDetail("at", raw))
			return
		}
		at = parsed
	}

	cand, err := h.generator.Next(c.Request.Context(), fam, identifier.Request{Now: at})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCandidate(cand))
}

// Watermark handles GET /identifiers/:family/watermark.
func (h *IdentifierHandler) Watermark(c *gin.Context) {
	fam, bucket, ok := h.watermarkTarget(c, c.Query("bucket"))
	if !ok {
		return
	}

	key := fam.SequenceKey(bucket)
	value, err := h.watermarks.Watermark(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.WatermarkResponse{Key: key, Value: value, Next: fam.Format(bucket, value+1)})
}

// SetWatermark handles PUT /identifiers/:family/watermark.
// It overwrites the floor, typically when importing records from another system.
func (h *IdentifierHandler) SetWatermark(c *gin.Context) {
	var req dto.WatermarkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	fam, bucket, ok := h.watermarkTarget(c, req.Bucket)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key := fam.SequenceKey(bucket)
	if err := h.watermarks.Set(ctx, key, req.Value); err != nil {
		h.Error(c, err)
		return
	}

	logger.Info(ctx, "watermark set", "key", key, "value", req.Value)
	h.OK(c, dto.WatermarkResponse{Key: key, Value: req.Value, Next: fam.Format(bucket, req.Value+1)})
}

// watermarkTarget resolves the family and bucket, defaulting to the current bucket.
func (h *IdentifierHandler) watermarkTarget(c *gin.Context, bucket string) (identifier.Family, string, bool) {
	if h.watermarks == nil {
		h.Error(c, apperror.NewBusinessRule("WATERMARKS_DISABLED", "sequence watermarks are not enabled"))
		return identifier.Family{}, "", false
	}
	fam, ok := h.family(c)
	if !ok {
		return identifier.Family{}, "", false
	}
	if bucket == "" {
		bucket = fam.BucketKey(h.clock())
	}
	if err := fam.CheckBucketKey(bucket); err != nil {
		h.Error(c, err)
		return identifier.Family{}, "", false
	}
	return fam, bucket, true
}
