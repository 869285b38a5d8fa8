package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// Report summarizes one family in its current bucket.
type Report struct {
	Family identifier.Key `json:"family"`
	Bucket string         `json:"bucket,omitempty"`

	// Highest is the stored reference with the largest sequence, empty if none.
	Highest string `json:"highest,omitempty"`

	// Watermark is the sys_sequences floor for the bucket.
	Watermark int64 `json:"watermark"`

	// NonSequential counts degraded-mode references in every bucket.
	NonSequential int64 `json:"nonSequential"`

	// Malformed samples references under the stem that do not parse.
	Malformed []string `json:"malformed,omitempty"`
}

// nonSequentialQuery counts degraded-mode rows of the family. Tables shared
// by several families are split on the family root.
func nonSequentialQuery(table, root string) squirrel.SelectBuilder {
	return builder().
		Select("count(*)").
		From(table).
		Where("non_sequential").
		Where(`reference LIKE ? ESCAPE '\'`, postgres.EscapeLike(root)+"%")
}

// Highest returns the stored reference with the largest sequence under stem.
func (s *Service) Highest(ctx context.Context, fam identifier.Family, stem string) (string, error) {
	refs, err := s.query(ctx, fam, topQuery(fam.Table, stem))
	if err != nil || len(refs) == 0 {
		return "", err
	}
	return refs[0], nil
}

// Malformed samples references under stem whose suffix is not a sequence.
func (s *Service) Malformed(ctx context.Context, fam identifier.Family, stem string) ([]string, error) {
	return s.query(ctx, fam, malformedQuery(fam.Table, stem))
}

// CountNonSequential counts the family's degraded-mode references.
func (s *Service) CountNonSequential(ctx context.Context, fam identifier.Family) (int64, error) {
	if !tableNameRE.MatchString(fam.Table) {
		return 0, fmt.Errorf("family %s: invalid table name %q", fam.Key, fam.Table)
	}
	sql, args, err := nonSequentialQuery(fam.Table, fam.Root()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int64
	if err := s.db.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("count non-sequential %s: %w", fam.Table, err), fam.Table)
	}
	return n, nil
}

func (s *Service) query(ctx context.Context, fam identifier.Family, sel squirrel.SelectBuilder) ([]string, error) {
	if !tableNameRE.MatchString(fam.Table) {
		return nil, fmt.Errorf("family %s: invalid table name %q", fam.Key, fam.Table)
	}
	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	refs, err := collect(ctx, s.db.GetQuerier(ctx), sql, args)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("scan %s: %w", fam.Table, err), fam.Table)
	}
	return refs, nil
}

// Reconciler periodically reports references that need a clerk's attention:
// degraded-mode values and rows that do not parse under their family.
type Reconciler struct {
	svc   *Service
	log   *logger.Logger
	clock func() time.Time
}

// NewReconciler creates a reconciler over svc.
func NewReconciler(svc *Service, log *logger.Logger) *Reconciler {
	return &Reconciler{
		svc:   svc,
		log:   log.WithComponent("reconcile"),
		clock: time.Now,
	}
}

// Scan reports every built-in family.
func (r *Reconciler) Scan(ctx context.Context) ([]Report, error) {
	return r.ScanFamilies(ctx, identifier.Sorted())
}

// ScanFamilies reports fams in their current bucket.
func (r *Reconciler) ScanFamilies(ctx context.Context, fams []identifier.Family) ([]Report, error) {
	now := r.clock()
	reports := make([]Report, 0, len(fams))

	for _, fam := range fams {
		bucket := fam.BucketKey(now)
		stem := fam.Stem(bucket)
		rep := Report{Family: fam.Key, Bucket: bucket}

		var err error
		if rep.Highest, err = r.svc.Highest(ctx, fam, stem); err != nil {
			return reports, err
		}
		if rep.Malformed, err = r.svc.Malformed(ctx, fam, stem); err != nil {
			return reports, err
		}
		if rep.NonSequential, err = r.svc.CountNonSequential(ctx, fam); err != nil {
			return reports, err
		}
		if rep.Watermark, err = r.svc.Watermark(ctx, fam.SequenceKey(bucket)); err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// RunOnce scans and logs one summary line per family needing review.
func (r *Reconciler) RunOnce(ctx context.Context) ([]Report, error) {
	reports, err := r.Scan(ctx)
	if err != nil {
		r.log.Errorw("reconciliation failed", "error", err)
		return reports, err
	}

	var nonSeq int64
	malformed := 0
	for _, rep := range reports {
		nonSeq += rep.NonSequential
		malformed += len(rep.Malformed)
		if rep.NonSequential > 0 || len(rep.Malformed) > 0 {
			r.log.Warnw("references need review",
				"family", rep.Family,
				"bucket", rep.Bucket,
				"non_sequential", rep.NonSequential,
				"malformed", rep.Malformed,
			)
		}
	}
	r.log.Infow("reconciliation finished",
		"families", len(reports),
		"non_sequential", nonSeq,
		"malformed", malformed,
	)
	return reports, nil
}

// Run calls RunOnce now and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
