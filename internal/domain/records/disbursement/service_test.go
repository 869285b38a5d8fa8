package disbursement

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
)

var (
	dec2025 = time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)
	jan2026 = time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
)

type memRepo struct {
	*domain.MemoryRepository[*Request]
	updates int
}

func (r *memRepo) UpdateStatus(ctx context.Context, req *Request) error {
	r.updates++
	req.Version++
	return nil
}

func newTestService(store *identifier.MemoryStore, now time.Time) (*Service, *memRepo) {
	repo := &memRepo{MemoryRepository: domain.NewMemoryRepository[*Request](store)}
	svc := NewService(
		repo,
		&tx.MockManager{},
		identifier.NewIssuer(identifier.NewSequencer(store), identifier.DefaultIssuerConfig()),
		nil,
	)
	svc.SetClock(func() time.Time { return now })
	svc.clock = func() time.Time { return now }
	return svc, repo
}

func newRequest() *Request {
	return NewRequest("Pacific Paper Co.", types.MustMoney("4500"), "PHP", "Office supplies", "Admin")
}

func TestService_Create_YearRollover(t *testing.T) {
	store := identifier.NewMemoryStore()
	store.Seed("disbursement_requests", "DISB-2025-118")
	ctx := context.Background()

	svc, _ := newTestService(store, dec2025)
	last := newRequest()
	require.NoError(t, svc.Create(ctx, last))
	assert.Equal(t, "DISB-2025-119", last.Reference)
	assert.Equal(t, dec2025, last.RequestedAt)

	svc, _ = newTestService(store, jan2026)
	first := newRequest()
	require.NoError(t, svc.Create(ctx, first))
	assert.Equal(t, "DISB-2026-001", first.Reference)
}

func TestService_ApproveThenRelease(t *testing.T) {
	svc, repo := newTestService(identifier.NewMemoryStore(), dec2025)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "approver-2"})

	var decided []Status
	svc.OnDecision(func(_ context.Context, r *Request) error {
		decided = append(decided, r.Status)
		return nil
	})

	r := newRequest()
	require.NoError(t, svc.Create(ctx, r))

	approved, err := svc.Approve(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, 2, approved.Version)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, "approver-2", *approved.DecidedBy)

	released, err := svc.Release(ctx, r.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, released.Status)
	assert.Equal(t, 2, repo.updates)
	assert.Equal(t, []Status{StatusApproved, StatusReleased}, decided)
}

func TestService_Transition_Invalid(t *testing.T) {
	svc, repo := newTestService(identifier.NewMemoryStore(), dec2025)
	ctx := context.Background()

	r := newRequest()
	require.NoError(t, svc.Create(ctx, r))

	_, err := svc.Release(ctx, r.ID, 1)
	assert.True(t, apperror.HasCode(err, CodeInvalidTransition), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.GetHTTPStatus(err))
	assert.Zero(t, repo.updates)
}

func TestService_Transition_StaleVersion(t *testing.T) {
	svc, _ := newTestService(identifier.NewMemoryStore(), dec2025)
	ctx := context.Background()

	r := newRequest()
	require.NoError(t, svc.Create(ctx, r))

	_, err := svc.Reject(ctx, r.ID, 7)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestRequest_Validate(t *testing.T) {
	ctx := context.Background()

	r := newRequest()
	require.NoError(t, r.Validate(ctx))

	r.Department = ""
	assert.Error(t, r.Validate(ctx))

	r = newRequest()
	r.Status = StatusApproved
	assert.Error(t, r.Validate(ctx))
}

func TestRequest_CanTransition(t *testing.T) {
	r := newRequest()
	assert.True(t, r.CanTransition(StatusApproved))
	assert.True(t, r.CanTransition(StatusRejected))
	assert.False(t, r.CanTransition(StatusReleased))

	r.Status = StatusReleased
	assert.False(t, r.CanTransition(StatusRejected))
}

func TestService_Create_DepartmentFromClerk(t *testing.T) {
	svc, _ := newTestService(identifier.NewMemoryStore(), dec2025)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "clerk-4", Department: "Operations"})

	r := NewRequest("Pacific Paper Co.", types.MustMoney("80"), "PHP", "Courier", "")
	require.NoError(t, svc.Create(ctx, r))
	assert.Equal(t, "Operations", r.Department)

	anonymous := NewRequest("Pacific Paper Co.", types.MustMoney("80"), "PHP", "Courier", "")
	err := svc.Create(context.Background(), anonymous)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, anonymous.Reference)
}
