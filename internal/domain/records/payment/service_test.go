package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
)

var oct2025 = time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestService(store *identifier.MemoryStore) *Service {
	svc := NewService(
		domain.NewMemoryRepository[*Payment](store),
		&tx.MockManager{},
		identifier.NewIssuer(identifier.NewSequencer(store), identifier.DefaultIssuerConfig()),
		nil,
	)
	svc.SetClock(func() time.Time { return oct2025 })
	svc.clock = func() time.Time { return oct2025 }
	return svc
}

func TestService_Create_NumbersByDirection(t *testing.T) {
	store := identifier.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	in1 := NewPayment(DirectionReceived, types.MustMoney("150.00"), "php", MethodCash)
	out1 := NewPayment(DirectionMade, types.MustMoney("99.99"), "PHP", MethodCheck)
	in2 := NewPayment(DirectionReceived, types.MustMoney("10"), "PHP", MethodCard)

	require.NoError(t, svc.Create(ctx, in1))
	require.NoError(t, svc.Create(ctx, out1))
	require.NoError(t, svc.Create(ctx, in2))

	assert.Equal(t, "PMT-2025-001", in1.Reference)
	assert.Equal(t, "V-PMT-2025-001", out1.Reference)
	assert.Equal(t, "PMT-2025-002", in2.Reference)
	assert.Equal(t, "PHP", in1.Currency)
	assert.Equal(t, oct2025, in1.PaidAt)
}

func TestService_Create_ContinuesExistingSequence(t *testing.T) {
	store := identifier.NewMemoryStore()
	store.Seed("payments", "PMT-2025-041", "V-PMT-2025-007")
	svc := newTestService(store)

	p := NewPayment(DirectionMade, types.MustMoney("5"), "USD", MethodBankTransfer)
	require.NoError(t, svc.Create(context.Background(), p))
	assert.Equal(t, "V-PMT-2025-008", p.Reference)
}

func TestService_Create_BlankMemoDropped(t *testing.T) {
	svc := newTestService(identifier.NewMemoryStore())
	memo := "   "
	p := NewPayment(DirectionReceived, types.MustMoney("1"), "PHP", MethodCash)
	p.Memo = &memo

	require.NoError(t, svc.Create(context.Background(), p))
	assert.Nil(t, p.Memo)
}

func TestPayment_Validate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		build func() *Payment
		field string
	}{
		{"bad direction", func() *Payment { return NewPayment("sideways", types.MustMoney("1"), "PHP", MethodCash) }, "direction"},
		{"bad method", func() *Payment { return NewPayment(DirectionMade, types.MustMoney("1"), "PHP", "barter") }, "method"},
		{"zero amount", func() *Payment { return NewPayment(DirectionMade, types.Zero(), "PHP", MethodCash) }, "amount"},
		{"fractional cents", func() *Payment { return NewPayment(DirectionMade, types.MustMoney("1.005"), "PHP", MethodCash) }, "amount"},
		{"bad currency", func() *Payment { return NewPayment(DirectionMade, types.MustMoney("1"), "PESO", MethodCash) }, "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate(ctx)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}
