package identifier

import (
	"context"
)

// MockGenerator is a test implementation of Generator.
type MockGenerator struct {
	NextFunc func(ctx context.Context, fam Family, req Request) (Candidate, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, fam Family, req Request) (Candidate, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, fam, req)
	}
	// Default: first sequence of the bucket
	bucket := fam.BucketKey(req.Now)
	return Candidate{
		Family:   fam.Key,
		Bucket:   bucket,
		Sequence: 1,
		Value:    fam.Format(bucket, 1),
	}, nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
