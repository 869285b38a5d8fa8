package identifier

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"backoffice/internal/core/apperror"
	"backoffice/pkg/logger"
)

var tracer = otel.Tracer("backoffice/identifier")

// Store is the read side of the record tables.
//
// Implementations live in infrastructure layer. They should obtain the
// querier from the surrounding request so the lookup shares its timeout.
type Store interface {
	// Candidates returns identifiers starting with stem that hold the highest
	// numeric suffix, plus identifiers whose suffix is not numeric.
	// Returning more rows than that is allowed.
	Candidates(ctx context.Context, fam Family, stem string) ([]string, error)
}

// Watermarks is an optional per family+bucket counter table.
// It keeps numbers from being reused after records are deleted.
type Watermarks interface {
	// Watermark returns the highest sequence recorded for key, 0 if none.
	Watermark(ctx context.Context, key string) (int64, error)

	// Advance raises the watermark to seq if it is lower.
	// Must run in the same transaction as the record insert.
	Advance(ctx context.Context, key string, seq int64) error

	// Set overwrites the watermark (for migration purposes).
	Set(ctx context.Context, key string, seq int64) error
}

// Request carries the per-call inputs of Next.
type Request struct {
	// Now selects the bucket. Zero means the current time.
	Now time.Time

	// Override forces the sequence. Not used on the common path.
	Override int64
}

// Candidate is a proposed identifier. It is not reserved.
type Candidate struct {
	Family   Key    `json:"family"`
	Bucket   string `json:"bucket,omitempty"`
	Sequence int64  `json:"sequence"`
	Value    string `json:"value"`

	// Malformed counts stored identifiers under the stem that did not parse.
	Malformed int `json:"malformed,omitempty"`
}

// Generator produces the next candidate identifier for a family.
// This is the domain contract; Sequencer is the implementation.
type Generator interface {
	Next(ctx context.Context, fam Family, req Request) (Candidate, error)
}

// Sequencer derives the next sequence from the store on every call.
// It holds no sequence state between calls.
type Sequencer struct {
	store      Store
	watermarks Watermarks
	now        func() time.Time
}

// Ensure compile-time interface compliance.
var _ Generator = (*Sequencer)(nil)

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithWatermarks makes the counter table a floor for the next sequence.
func WithWatermarks(w Watermarks) SequencerOption {
	return func(s *Sequencer) { s.watermarks = w }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) { s.now = now }
}

// NewSequencer creates a generator reading from store.
func NewSequencer(store Store, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next computes the next candidate for fam.
// Pattern: PREFIX[-BUCKET]-NNN (e.g., OR-2025-00001, AP-008)
func (s *Sequencer) Next(ctx context.Context, fam Family, req Request) (Candidate, error) {
	if s == nil || s.store == nil {
		return Candidate{}, apperror.NewInternal(fmt.Errorf("identifier sequencer is not initialized"))
	}
	if err := fam.Validate(); err != nil {
		return Candidate{}, err
	}

	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	bucket := fam.BucketKey(now)

	ctx, span := tracer.Start(ctx, "identifier.next",
		trace.WithAttributes(
			attribute.String("identifier.family", string(fam.Key)),
			attribute.String("identifier.bucket", bucket),
		))
	defer span.End()

	cand := Candidate{Family: fam.Key, Bucket: bucket}

	if req.Override > MaxSequence {
		return Candidate{}, apperror.NewSequenceOverflow(string(fam.Key), req.Override)
	}
	if req.Override > 0 {
		cand.Sequence = req.Override
		cand.Value = fam.Format(bucket, req.Override)
		return cand, nil
	}

	highest, malformed, err := s.highest(ctx, fam, bucket)
	if err != nil {
		span.RecordError(err)
		return Candidate{}, err
	}

	if highest >= MaxSequence {
		err := apperror.NewSequenceOverflow(string(fam.Key), highest)
		span.RecordError(err)
		return Candidate{}, err
	}

	cand.Sequence = highest + 1
	cand.Value = fam.Format(bucket, cand.Sequence)
	cand.Malformed = malformed
	return cand, nil
}

// highest returns the largest committed sequence for fam+bucket.
func (s *Sequencer) highest(ctx context.Context, fam Family, bucket string) (int64, int, error) {
	stem := fam.Stem(bucket)

	values, err := s.store.Candidates(ctx, fam, stem)
	if err != nil {
		if apperror.IsStoreUnavailable(err) {
			return 0, 0, err
		}
		return 0, 0, apperror.NewStoreUnavailable(fmt.Errorf("lookup %s: %w", stem, err))
	}

	var highest int64
	malformed := 0
	for _, v := range values {
		if IsFallback(fam, v) {
			continue
		}
		seq, err := fam.Parse(v, bucket)
		if err != nil {
			malformed++
			logger.Warn(ctx, "malformed identifier skipped",
				logger.FieldFamily, fam.Key,
				"table", fam.Table,
				"identifier", v,
				"error", err,
			)
			continue
		}
		if seq > highest {
			highest = seq
		}
	}

	if s.watermarks != nil {
		wm, err := s.watermarks.Watermark(ctx, fam.SequenceKey(bucket))
		if err != nil {
			if apperror.IsStoreUnavailable(err) {
				return 0, 0, err
			}
			return 0, 0, apperror.NewStoreUnavailable(fmt.Errorf("watermark %s: %w", fam.SequenceKey(bucket), err))
		}
		if wm > highest {
			highest = wm
		}
	}

	return highest, malformed, nil
}
