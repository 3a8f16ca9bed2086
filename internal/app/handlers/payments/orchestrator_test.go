package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/apperr"
	"staybook/internal/app/handlers/payments"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	"staybook/internal/domain/quote"
	"staybook/internal/infra/storage/memory"
)

func newUnit(t *testing.T) (uow.UnitOfWork, context.Context) {
	t.Helper()
	factory := memory.Factory{
		PropertyRepo: memory.NewPropertyRepository(),
		BookingRepo:  memory.NewBookingRepository(),
		PaymentRepo:  memory.NewPaymentRepository(),
		ScheduleRepo: memory.NewScheduleRepository(),
	}
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return unit, context.Background()
}

func awaitingPaymentBooking(deposit int64) *domainbooking.Booking {
	now := time.Now().UTC()
	return &domainbooking.Booking{
		ID:         "bk-1",
		Kind:       quote.KindStay,
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		Guests:     2,
		Mode:       quote.ModeInstant,
		Status:     domainbooking.StatusAwaitingPayment,
		Quote: quote.Breakdown{
			TotalCents:   35000,
			DepositCents: deposit,
			Currency:     "USD",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEnsureIntentsCreatesTotalAndDepositHold(t *testing.T) {
	unit, ctx := newUnit(t)
	provider := memory.NewPaymentProvider()
	orch := &payments.Orchestrator{Provider: provider}
	b := awaitingPaymentBooking(10000)

	created, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)
	require.Len(t, created, 2)

	byPurpose := map[domainpayment.Purpose]*domainpayment.Payment{}
	for _, p := range created {
		byPurpose[p.Purpose] = p
	}
	total := byPurpose[domainpayment.PurposeBookingTotal]
	require.NotNil(t, total)
	assert.Equal(t, domainpayment.CaptureAutomatic, total.CaptureMethod)
	assert.Equal(t, int64(35000), total.AmountCents)
	assert.Equal(t, domainpayment.StatusRequiresAction, total.Status)
	assert.NotEmpty(t, total.IntentID)
	assert.NotEmpty(t, total.ClientSecret)

	hold := byPurpose[domainpayment.PurposeDepositHold]
	require.NotNil(t, hold)
	assert.Equal(t, domainpayment.CaptureManual, hold.CaptureMethod)
	assert.Equal(t, int64(10000), hold.AmountCents)
}

func TestEnsureIntentsSkipsDepositWhenAbsent(t *testing.T) {
	unit, ctx := newUnit(t)
	orch := &payments.Orchestrator{Provider: memory.NewPaymentProvider()}

	created, err := orch.EnsureIntents(ctx, unit, awaitingPaymentBooking(0))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domainpayment.PurposeBookingTotal, created[0].Purpose)
}

func TestEnsureIntentsIsIdempotentPerPurpose(t *testing.T) {
	unit, ctx := newUnit(t)
	orch := &payments.Orchestrator{Provider: memory.NewPaymentProvider()}
	b := awaitingPaymentBooking(10000)

	first, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)
	second, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)

	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)

	stored, err := unit.Payments().ByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCaptureConfirmsBookingOnceCharged(t *testing.T) {
	unit, ctx := newUnit(t)
	provider := memory.NewPaymentProvider()
	orch := &payments.Orchestrator{Provider: provider}
	b := awaitingPaymentBooking(0)
	require.NoError(t, unit.Bookings().Save(ctx, b))

	created, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)

	// Before the guest completes the payment step, capture reports pending.
	_, err = orch.Capture(ctx, unit, b)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))

	require.NoError(t, provider.SettleIntent(created[0].IntentID))

	p, err := orch.Capture(ctx, unit, b)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusSucceeded, p.Status)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
}

func TestCaptureRejectsWrongBookingState(t *testing.T) {
	unit, ctx := newUnit(t)
	orch := &payments.Orchestrator{Provider: memory.NewPaymentProvider()}
	b := awaitingPaymentBooking(0)
	b.Status = domainbooking.StatusDraft

	_, err := orch.Capture(ctx, unit, b)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCaptureWithoutPaymentsIsNotFound(t *testing.T) {
	unit, ctx := newUnit(t)
	orch := &payments.Orchestrator{Provider: memory.NewPaymentProvider()}

	_, err := orch.Capture(ctx, unit, awaitingPaymentBooking(0))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReconcileConfirmsBookingAndPersistsOnlyChanges(t *testing.T) {
	unit, ctx := newUnit(t)
	provider := memory.NewPaymentProvider()
	orch := &payments.Orchestrator{Provider: provider}
	b := awaitingPaymentBooking(0)
	require.NoError(t, unit.Bookings().Save(ctx, b))

	created, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)
	versionAfterCreate := created[0].Version

	// No provider-side change: reconcile must not rewrite the row.
	_, err = orch.Reconcile(ctx, unit, b)
	require.NoError(t, err)
	stored, err := unit.Payments().ByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, versionAfterCreate, stored.Version)

	require.NoError(t, provider.SettleIntent(created[0].IntentID))
	_, err = orch.Reconcile(ctx, unit, b)
	require.NoError(t, err)

	stored, err = unit.Payments().ByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusSucceeded, stored.Status)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
}

func TestProviderFailureIsClassifiedAndSanitized(t *testing.T) {
	unit, ctx := newUnit(t)
	provider := memory.NewPaymentProvider()
	orch := &payments.Orchestrator{Provider: provider}

	provider.FailNextCreate = &policies.ProviderError{
		Kind: policies.ProviderErrCardDeclined,
		Msg:  "your card was declined",
	}
	_, err := orch.EnsureIntents(ctx, unit, awaitingPaymentBooking(0))
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
	assert.Equal(t, "your card was declined", err.Error())

	provider.FailNextCreate = &policies.ProviderError{
		Kind: policies.ProviderErrUnavailable,
		Msg:  "shard 7 connection pool exhausted",
	}
	_, err = orch.EnsureIntents(ctx, unit, awaitingPaymentBooking(0))
	require.Error(t, err)
	assert.Equal(t, "payment service temporarily unavailable", err.Error())
}
