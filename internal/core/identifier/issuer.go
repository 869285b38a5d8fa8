package identifier

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"backoffice/internal/core/apperror"
	"backoffice/pkg/logger"
)

// DefaultMaxAttempts is the collision retry limit.
const DefaultMaxAttempts = 3

// FallbackMarker precedes the timestamp of a degraded-mode identifier
// ("OR-T20251018153012123456789").
const FallbackMarker = "T"

// Issued is a candidate that was handed to the persist callback.
type Issued struct {
	Candidate

	// NonSequential marks a timestamp-derived identifier issued while the
	// store was unavailable. Such records need reconciliation.
	NonSequential bool `json:"nonSequential"`

	// Attempt is 1-based.
	Attempt int `json:"attempt"`
}

// PersistFunc stores a record under issued.Value. It must return an error
// for which apperror.IsDuplicateIdentifier holds when the unique index on the
// reference column rejects the value.
type PersistFunc func(ctx context.Context, issued Issued) error

// IssuerConfig configures retry and fallback behavior.
type IssuerConfig struct {
	// MaxAttempts bounds collision retries. Default is 3.
	MaxAttempts int

	// DisableFallback surfaces StoreUnavailable instead of issuing a
	// timestamp-derived identifier.
	DisableFallback bool
}

// DefaultIssuerConfig returns standard settings.
func DefaultIssuerConfig() IssuerConfig {
	return IssuerConfig{MaxAttempts: DefaultMaxAttempts}
}

// Issuer runs generate-then-insert until the insert wins.
type Issuer struct {
	gen   Generator
	cfg   IssuerConfig
	clock func() time.Time
}

// NewIssuer creates an issuer on top of gen.
func NewIssuer(gen Generator, cfg IssuerConfig) *Issuer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Issuer{
		gen:   gen,
		cfg:   cfg,
		clock: time.Now,
	}
}

// Generator returns the underlying generator.
func (i *Issuer) Generator() Generator {
	return i.gen
}

// Issue generates a candidate for fam and persists it, regenerating on
// DuplicateIdentifier. Returns IdentifierExhausted when every attempt collided.
func (i *Issuer) Issue(ctx context.Context, fam Family, now time.Time, persist PersistFunc) (Issued, error) {
	ctx, span := tracer.Start(ctx, "identifier.issue",
		trace.WithAttributes(attribute.String("identifier.family", string(fam.Key))))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= i.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Issued{}, err
		}

		cand, err := i.gen.Next(ctx, fam, Request{Now: now})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Issued{}, ctxErr
			}
			if apperror.IsStoreUnavailable(err) && !i.cfg.DisableFallback {
				return i.issueFallback(ctx, fam, now, attempt, err, persist)
			}
			return Issued{}, err
		}

		issued := Issued{Candidate: cand, Attempt: attempt}
		err = persist(ctx, issued)
		if err == nil {
			span.SetAttributes(attribute.Int("identifier.attempts", attempt))
			return issued, nil
		}
		if !apperror.IsDuplicateIdentifier(err) {
			return Issued{}, err
		}

		logger.FromContext(ctx).WithReference(string(fam.Key), cand.Value).Infow(
			"identifier collision, regenerating", "attempt", attempt)
		lastErr = err
	}

	return Issued{}, apperror.NewIdentifierExhausted(string(fam.Key), i.cfg.MaxAttempts).WithCause(lastErr)
}

// issueFallback persists a timestamp-derived identifier after the sequence
// lookup failed. Remaining attempts cover same-instant collisions.
func (i *Issuer) issueFallback(ctx context.Context, fam Family, now time.Time, attempt int, cause error, persist PersistFunc) (Issued, error) {
	logger.Warn(ctx, "identifier degraded mode",
		logger.FieldFamily, fam.Key,
		"error", cause,
	)

	var lastErr error = cause
	for ; attempt <= i.cfg.MaxAttempts; attempt++ {
		issued := Issued{
			Candidate: Candidate{
				Family: fam.Key,
				Bucket: fam.BucketKey(now),
				Value:  FallbackValue(fam, i.clock()),
			},
			NonSequential: true,
			Attempt:       attempt,
		}

		err := persist(ctx, issued)
		if err == nil {
			logger.FromContext(ctx).WithReference(string(fam.Key), issued.Value).Warnw(
				"non-sequential identifier issued")
			return issued, nil
		}
		if !apperror.IsDuplicateIdentifier(err) {
			return Issued{}, err
		}
		lastErr = err
	}

	return Issued{}, apperror.NewIdentifierExhausted(string(fam.Key), i.cfg.MaxAttempts).WithCause(lastErr)
}

// FallbackValue builds a timestamp-derived identifier. It never parses as a
// sequence of fam, so it cannot shadow or collide with sequential values.
func FallbackValue(fam Family, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%s%s%s%09d", fam.head(), fam.Separator, FallbackMarker, t.Format("20060102150405"), t.Nanosecond())
}

// IsFallback reports whether value was produced by FallbackValue for fam.
func IsFallback(fam Family, value string) bool {
	stem := fam.head() + fam.Separator + FallbackMarker
	if len(value) <= len(stem) || value[:len(stem)] != stem {
		return false
	}
	return isDigits(value[len(stem):])
}
