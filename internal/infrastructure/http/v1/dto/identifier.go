package dto

import (
	"backoffice/internal/core/identifier"
)

// FamilyResponse describes one identifier family.
type FamilyResponse struct {
	identifier.Family
	Example string `json:"example"`
}

// NextResponse previews the next reference without reserving it.
type NextResponse struct {
	Family    identifier.Key `json:"family"`
	Bucket    string         `json:"bucket"`
	Sequence  int64          `json:"sequence"`
	Reference string         `json:"reference"`
	Malformed int            `json:"malformed"`
}

// FromCandidate converts a generator candidate.
func FromCandidate(c identifier.Candidate) NextResponse {
	return NextResponse{
		Family:    c.Family,
		Bucket:    c.Bucket,
		Sequence:  c.Sequence,
		Reference: c.Value,
		Malformed: c.Malformed,
	}
}

// WatermarkRequest is the body of PUT /identifiers/:family/watermark.
// Bucket defaults to the current one for bucketed families.
type WatermarkRequest struct {
	Bucket string `json:"bucket"`
	Value  int64  `json:"value" binding:"min=0,max=999999999999999999"`
}

// WatermarkResponse echoes the stored floor.
type WatermarkResponse struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
	Next  string `json:"next"`
}
