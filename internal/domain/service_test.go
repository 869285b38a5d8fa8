package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
)

type note struct {
	entity.BaseRecord
	Body string
}

func (n *note) Validate(context.Context) error {
	if n.Body == "" {
		return errors.New("body is required")
	}
	return nil
}

func (n *note) Family() identifier.Family {
	return identifier.Families[identifier.OfficialReceipt]
}

func newNote(body string) *note {
	return &note{BaseRecord: entity.NewBaseRecord(), Body: body}
}

var oct2025 = time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *identifier.MemoryStore
	watermarks *identifier.MemoryWatermarks
	repo       *MemoryRepository[*note]
	txm        *tx.MockManager
	svc        *RecordService[*note]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      identifier.NewMemoryStore(),
		watermarks: identifier.NewMemoryWatermarks(),
		txm:        &tx.MockManager{},
	}
	f.repo = NewMemoryRepository[*note](f.store)
	gen := identifier.NewSequencer(f.store, identifier.WithWatermarks(f.watermarks))
	f.svc = NewRecordService(RecordServiceConfig[*note]{
		Repo:       f.repo,
		TxManager:  f.txm,
		Issuer:     identifier.NewIssuer(gen, identifier.DefaultIssuerConfig()),
		Watermarks: f.watermarks,
		EntityName: "note",
	})
	f.svc.SetClock(func() time.Time { return oct2025 })
	return f
}

func TestRecordService_Create_AssignsNextReference(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("official_receipts", "OR-2025-00001")
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "clerk-1"})

	n := newNote("first")
	require.NoError(t, f.svc.Create(ctx, n))

	assert.Equal(t, "OR-2025-00002", n.Reference)
	assert.False(t, n.NonSequential)
	assert.Equal(t, "clerk-1", n.CreatedBy)
	assert.Equal(t, 1, f.txm.Calls)

	mark, err := f.watermarks.Watermark(ctx, "OfficialReceipt_2025")
	require.NoError(t, err)
	assert.Equal(t, int64(2), mark)
}

func TestRecordService_Create_SequentialSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Create(ctx, newNote("n")))
	}
	assert.Equal(t, []string{"OR-2025-00001", "OR-2025-00002", "OR-2025-00003"}, f.store.Values("official_receipts"))
}

func TestRecordService_Create_ValidationFailsBeforeIssuing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Create(context.Background(), newNote(""))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Zero(t, f.store.Lookups())
}

func TestRecordService_Create_BeforeHookAborts(t *testing.T) {
	f := newFixture(t)
	blocked := apperror.NewBusinessRule("CLOSED_PERIOD", "period is closed")
	f.svc.Hooks().On(BeforeCreate, func(context.Context, *note) error { return blocked })

	err := f.svc.Create(context.Background(), newNote("n"))
	assert.ErrorIs(t, err, blocked)
	assert.Empty(t, f.store.Values("official_receipts"))
}

func TestRecordService_Create_AfterHookSeesReference(t *testing.T) {
	f := newFixture(t)
	var seen string
	f.svc.Hooks().On(AfterCreate, func(_ context.Context, n *note) error {
		seen = n.Reference
		return errors.New("audit down")
	})

	require.NoError(t, f.svc.Create(context.Background(), newNote("n")))
	assert.Equal(t, "OR-2025-00001", seen)
}

func TestRecordService_Create_RetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Another writer commits the same candidate between read and insert.
	seq := identifier.NewSequencer(f.store)
	raced := false
	f.svc.issuer = identifier.NewIssuer(&identifier.MockGenerator{
		NextFunc: func(ctx context.Context, fam identifier.Family, req identifier.Request) (identifier.Candidate, error) {
			cand, err := seq.Next(ctx, fam, req)
			if err == nil && !raced {
				raced = true
				require.NoError(t, f.store.Commit(fam.Table, cand.Value))
			}
			return cand, err
		},
	}, identifier.DefaultIssuerConfig())

	n := newNote("n")
	require.NoError(t, f.svc.Create(ctx, n))
	assert.Equal(t, "OR-2025-00002", n.Reference)
	assert.Equal(t, 2, f.txm.Calls)
}

func TestRecordService_Create_DegradedModeFlagsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Fail(errors.New("connection refused"))

	// The same outage rejects the insert: nothing is persisted.
	err := f.svc.Create(ctx, newNote("n"))
	require.Error(t, err)
	assert.True(t, apperror.IsStoreUnavailable(err))

	// Insert path recovers while the lookup stays down.
	f.store.Fail(nil)
	f.svc.issuer = identifier.NewIssuer(&identifier.MockGenerator{
		NextFunc: func(context.Context, identifier.Family, identifier.Request) (identifier.Candidate, error) {
			return identifier.Candidate{}, apperror.NewStoreUnavailable(errors.New("timeout"))
		},
	}, identifier.DefaultIssuerConfig())

	n := newNote("n")
	require.NoError(t, f.svc.Create(ctx, n))
	assert.True(t, n.NonSequential)
	assert.True(t, identifier.IsFallback(n.Family(), n.Reference))

	mark, err := f.watermarks.Watermark(ctx, "OfficialReceipt_2025")
	require.NoError(t, err)
	assert.Zero(t, mark)
}

func TestRecordService_Create_FailureClearsReference(t *testing.T) {
	f := newFixture(t)
	f.repo.CreateErr = apperror.NewInternal(errors.New("disk full"))

	n := newNote("n")
	err := f.svc.Create(context.Background(), n)
	require.Error(t, err)
	assert.Empty(t, n.Reference)
	assert.False(t, n.NonSequential)
}

func TestRecordService_GetByReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := newNote("n")
	require.NoError(t, f.svc.Create(ctx, n))

	got, err := f.svc.GetByReference(ctx, n.Reference)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	byID, err := f.svc.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Reference, byID.Reference)

	_, err = f.svc.GetByReference(ctx, "OR-2025-99999")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, f.svc.Create(ctx, newNote("n")))
	}

	res, err := f.svc.List(ctx, ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "OR-2025-00002", res.Items[0].Reference)

	res, err = f.svc.List(ctx, ListFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, DefaultListFilter().Limit, res.Limit)

	res, err = f.svc.List(ctx, ListFilter{NonSequentialOnly: true})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = f.svc.List(ctx, ListFilter{Family: "Nope"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
