package identifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
)

var (
	in2025 = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	in2026 = time.Date(2026, time.January, 1, 0, 0, 1, 0, time.UTC)
)

func nextValue(t *testing.T, gen Generator, key Key, now time.Time) Candidate {
	t.Helper()
	cand, err := gen.Next(context.Background(), Families[key], Request{Now: now})
	require.NoError(t, err)
	return cand
}

func TestSequencer_OfficialReceipt_StartsAtOne(t *testing.T) {
	store := NewMemoryStore()
	gen := NewSequencer(store)
	fam := Families[OfficialReceipt]

	cand := nextValue(t, gen, OfficialReceipt, in2025)
	assert.Equal(t, "OR-2025-00001", cand.Value)
	assert.Equal(t, int64(1), cand.Sequence)
	assert.Equal(t, "2025", cand.Bucket)

	require.NoError(t, store.Commit(fam.Table, cand.Value))

	cand = nextValue(t, gen, OfficialReceipt, in2025)
	assert.Equal(t, "OR-2025-00002", cand.Value)
}

func TestSequencer_VendorContact_ContinuesFromMax(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-001", "AP-007", "AP-003")
	gen := NewSequencer(store)

	assert.Equal(t, "AP-008", nextValue(t, gen, VendorContact, in2025).Value)
}

func TestSequencer_MalformedRowDoesNotConfuse(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-XX", "AP-009")
	gen := NewSequencer(store)

	cand := nextValue(t, gen, VendorContact, in2025)
	assert.Equal(t, "AP-010", cand.Value)
	assert.Equal(t, 1, cand.Malformed)
}

func TestSequencer_SuffixPastInt64IsMalformed(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-9223372036854775807", "AP-004")
	gen := NewSequencer(store)

	cand := nextValue(t, gen, VendorContact, in2025)
	assert.Equal(t, "AP-005", cand.Value)
	assert.Equal(t, int64(5), cand.Sequence)
	assert.Equal(t, 1, cand.Malformed)
}

func TestSequencer_FailsWhenSequenceSpaceIsUsedUp(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-999999999999999999")
	gen := NewSequencer(store)

	cand, err := gen.Next(context.Background(), Families[VendorContact], Request{Now: in2025})
	assert.True(t, apperror.HasCode(err, apperror.CodeSequenceOverflow), "got %v", err)
	assert.Empty(t, cand.Value)

	_, err = gen.Next(context.Background(), Families[VendorContact], Request{Now: in2025, Override: MaxSequence + 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeSequenceOverflow))
}

func TestSequencer_WatermarkAtCapFails(t *testing.T) {
	marks := NewMemoryWatermarks()
	key := Families[OfficialReceipt].SequenceKey("2025")
	require.NoError(t, marks.Set(context.Background(), key, MaxSequence))
	assert.Error(t, marks.Set(context.Background(), key, MaxSequence+1))

	gen := NewSequencer(NewMemoryStore(), WithWatermarks(marks))
	_, err := gen.Next(context.Background(), Families[OfficialReceipt], Request{Now: in2025})
	assert.True(t, apperror.HasCode(err, apperror.CodeSequenceOverflow))
}

func TestSequencer_OnlyMalformedRows_StartsAtOne(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-XX", "AP-")
	gen := NewSequencer(store)

	cand := nextValue(t, gen, VendorContact, in2025)
	assert.Equal(t, "AP-001", cand.Value)
	assert.Equal(t, 2, cand.Malformed)
}

func TestSequencer_NumericOrderNotLexical(t *testing.T) {
	store := NewMemoryStore()
	// "AP-1000" sorts before "AP-999" as a string.
	store.Seed("contacts", "AP-999", "AP-1000", "AP-7")
	gen := NewSequencer(store)

	assert.Equal(t, "AP-1001", nextValue(t, gen, VendorContact, in2025).Value)
}

func TestSequencer_CustomerAndVendorShareTable(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-041", "AR-002")
	gen := NewSequencer(store)

	assert.Equal(t, "AR-003", nextValue(t, gen, CustomerContact, in2025).Value)
	assert.Equal(t, "AP-042", nextValue(t, gen, VendorContact, in2025).Value)
}

func TestSequencer_PaymentPrefixesShareTable(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("payments", "V-PMT-2025-005")
	gen := NewSequencer(store)

	assert.Equal(t, "PMT-2025-001", nextValue(t, gen, PaymentReceived, in2025).Value)
	assert.Equal(t, "V-PMT-2025-006", nextValue(t, gen, PaymentMade, in2025).Value)
}

func TestSequencer_ContiguousAfterCommits(t *testing.T) {
	for _, key := range []Key{PaymentReceived, PaymentMade, OfficialReceipt, VendorContact, CustomerContact, DisbursementRequest} {
		t.Run(string(key), func(t *testing.T) {
			store := NewMemoryStore()
			gen := NewSequencer(store)
			fam := Families[key]

			for i := int64(1); i <= 12; i++ {
				cand := nextValue(t, gen, key, in2025)
				require.Equal(t, i, cand.Sequence)
				require.Equal(t, fam.Format(fam.BucketKey(in2025), i), cand.Value)

				suffix := cand.Value[len(fam.Stem(cand.Bucket)):]
				require.Len(t, suffix, fam.Width)

				require.NoError(t, store.Commit(fam.Table, cand.Value))
			}
		})
	}
}

func TestSequencer_ReadIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("official_receipts", "OR-2025-00041")
	gen := NewSequencer(store)

	first := nextValue(t, gen, OfficialReceipt, in2025)
	second := nextValue(t, gen, OfficialReceipt, in2025)

	assert.Equal(t, "OR-2025-00042", first.Value)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.Lookups())
}

func TestSequencer_BucketIsolation(t *testing.T) {
	store := NewMemoryStore()
	gen := NewSequencer(store)
	fam := Families[OfficialReceipt]

	for i := 0; i < 3; i++ {
		cand := nextValue(t, gen, OfficialReceipt, in2025)
		require.NoError(t, store.Commit(fam.Table, cand.Value))
	}

	assert.Equal(t, "OR-2026-00001", nextValue(t, gen, OfficialReceipt, in2026).Value)

	cand := nextValue(t, gen, OfficialReceipt, in2026)
	require.NoError(t, store.Commit(fam.Table, cand.Value))

	// 2026 does not advance 2025, and old identifiers stay as they are.
	assert.Equal(t, "OR-2025-00004", nextValue(t, gen, OfficialReceipt, in2025).Value)
	assert.Contains(t, store.Values(fam.Table), "OR-2025-00003")
}

func TestSequencer_SkipsFallbackIdentifiers(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("contacts", "AP-004", "AP-T20251018153012123456789")
	gen := NewSequencer(store)

	cand := nextValue(t, gen, VendorContact, in2025)
	assert.Equal(t, "AP-005", cand.Value)
	assert.Zero(t, cand.Malformed)
}

func TestSequencer_UsesClockWhenNowIsZero(t *testing.T) {
	gen := NewSequencer(NewMemoryStore(), WithClock(func() time.Time { return in2026 }))

	cand, err := gen.Next(context.Background(), Families[DisbursementRequest], Request{})
	require.NoError(t, err)
	assert.Equal(t, "DISB-2026-001", cand.Value)
}

func TestSequencer_Override(t *testing.T) {
	store := NewMemoryStore()
	gen := NewSequencer(store)

	cand, err := gen.Next(context.Background(), Families[OfficialReceipt], Request{Now: in2025, Override: 42})
	require.NoError(t, err)
	assert.Equal(t, "OR-2025-00042", cand.Value)
	assert.Zero(t, store.Lookups())
}

func TestSequencer_StoreUnavailable(t *testing.T) {
	store := NewMemoryStore()
	store.Fail(errors.New("connection refused"))
	gen := NewSequencer(store)

	_, err := gen.Next(context.Background(), Families[PaymentReceived], Request{Now: in2025})
	require.Error(t, err)
	assert.True(t, apperror.IsStoreUnavailable(err))
}

func TestSequencer_InvalidFamily(t *testing.T) {
	gen := NewSequencer(NewMemoryStore())

	_, err := gen.Next(context.Background(), Family{Key: "broken"}, Request{Now: in2025})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSequencer_WatermarkIsFloor(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("official_receipts", "OR-2025-00003")
	marks := NewMemoryWatermarks()
	ctx := context.Background()
	fam := Families[OfficialReceipt]

	// Records 4..10 were issued and later deleted.
	require.NoError(t, marks.Advance(ctx, fam.SequenceKey("2025"), 10))

	gen := NewSequencer(store, WithWatermarks(marks))
	assert.Equal(t, "OR-2025-00011", nextValue(t, gen, OfficialReceipt, in2025).Value)

	// A lower watermark never wins over stored data.
	require.NoError(t, marks.Set(ctx, fam.SequenceKey("2025"), 1))
	assert.Equal(t, "OR-2025-00004", nextValue(t, gen, OfficialReceipt, in2025).Value)
}

type failingWatermarks struct{ MemoryWatermarks }

func (f *failingWatermarks) Watermark(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("sys_sequences: %w", errors.New("timeout"))
}

func TestSequencer_WatermarkFailureIsStoreUnavailable(t *testing.T) {
	gen := NewSequencer(NewMemoryStore(), WithWatermarks(&failingWatermarks{}))

	_, err := gen.Next(context.Background(), Families[OfficialReceipt], Request{Now: in2025})
	assert.True(t, apperror.IsStoreUnavailable(err))
}

func TestMemoryWatermarks_AdvanceIsMonotonic(t *testing.T) {
	marks := NewMemoryWatermarks()
	ctx := context.Background()

	require.NoError(t, marks.Advance(ctx, "k", 5))
	require.NoError(t, marks.Advance(ctx, "k", 3))

	wm, err := marks.Watermark(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(5), wm)
}

func TestMockGenerator_Default(t *testing.T) {
	m := &MockGenerator{}
	cand, err := m.Next(context.Background(), Families[VendorContact], Request{Now: in2025})
	require.NoError(t, err)
	assert.Equal(t, "AP-001", cand.Value)
}
