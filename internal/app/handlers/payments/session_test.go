package payments_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/apperr"
	"staybook/internal/app/handlers/payments"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	"staybook/internal/infra/storage/memory"
)

func TestPaymentSessionReconcilesBothIntents(t *testing.T) {
	unit, _ := newUnit(t)
	ctx := uow.ContextWithUnitOfWork(context.Background(), unit)
	provider := memory.NewPaymentProvider()
	orch := &payments.Orchestrator{Provider: provider}

	b := awaitingPaymentBooking(10000)
	require.NoError(t, unit.Bookings().Save(ctx, b))
	created, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)
	require.Len(t, created, 2)

	byPurpose := map[domainpayment.Purpose]*domainpayment.Payment{}
	for _, p := range created {
		byPurpose[p.Purpose] = p
	}
	total := byPurpose[domainpayment.PurposeBookingTotal]
	hold := byPurpose[domainpayment.PurposeDepositHold]
	require.NotNil(t, total)
	require.NotNil(t, hold)

	// The guest completes the total charge; the deposit hold stays untouched.
	require.NoError(t, provider.SettleIntent(total.IntentID))

	handler := &payments.PaymentSessionHandler{Orchestrator: orch}
	session, err := handler.Handle(ctx, payments.PaymentSessionQuery{BookingID: "bk-1", PrincipalID: "guest-1"})
	require.NoError(t, err)

	require.Len(t, session.Payments, 2)
	statuses := map[string]string{}
	for _, p := range session.Payments {
		statuses[p.Purpose] = p.Status
	}
	assert.Equal(t, string(domainpayment.StatusSucceeded), statuses[string(domainpayment.PurposeBookingTotal)])
	assert.Equal(t, string(domainpayment.StatusRequiresAction), statuses[string(domainpayment.PurposeDepositHold)])
	assert.Equal(t, string(domainbooking.StatusConfirmed), session.Booking.Status)

	// Only the changed row was rewritten.
	storedTotal, err := unit.Payments().ByID(ctx, total.ID)
	require.NoError(t, err)
	storedHold, err := unit.Payments().ByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, total.Version+1, storedTotal.Version)
	assert.Equal(t, hold.Version, storedHold.Version)

	// A second poll observes no provider-side changes and writes nothing.
	_, err = handler.Handle(ctx, payments.PaymentSessionQuery{BookingID: "bk-1", PrincipalID: "guest-1"})
	require.NoError(t, err)
	again, err := unit.Payments().ByID(ctx, total.ID)
	require.NoError(t, err)
	assert.Equal(t, storedTotal.Version, again.Version)
}

func TestPaymentSessionIsOwnerOnly(t *testing.T) {
	unit, _ := newUnit(t)
	ctx := uow.ContextWithUnitOfWork(context.Background(), unit)
	orch := &payments.Orchestrator{Provider: memory.NewPaymentProvider()}

	b := awaitingPaymentBooking(0)
	require.NoError(t, unit.Bookings().Save(ctx, b))
	_, err := orch.EnsureIntents(ctx, unit, b)
	require.NoError(t, err)

	handler := &payments.PaymentSessionHandler{Orchestrator: orch}
	_, err = handler.Handle(ctx, payments.PaymentSessionQuery{BookingID: "bk-1", PrincipalID: "guest-2"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
