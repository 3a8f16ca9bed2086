package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/apperr"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
)

// Orchestrator keeps local Payment rows consistent with the provider's
// asynchronous state. All provider failures are classified and sanitized
// before they can reach a guest.
type Orchestrator struct {
	Provider policies.PaymentProvider
	Logger   *slog.Logger
}

// EnsureIntents creates the provider intents a booking needs on entering
// awaiting_payment: the booking total, plus a manual-capture deposit hold
// when the quote carries a deposit. At most one active payment exists per
// purpose; re-entry is a no-op for purposes already covered.
func (o *Orchestrator) EnsureIntents(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) ([]*domainpayment.Payment, error) {
	existing, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	active := make(map[domainpayment.Purpose]*domainpayment.Payment)
	for _, p := range existing {
		if p.Active() {
			active[p.Purpose] = p
		}
	}

	type intentSpec struct {
		purpose domainpayment.Purpose
		amount  int64
		capture domainpayment.CaptureMethod
	}
	wanted := []intentSpec{
		{domainpayment.PurposeBookingTotal, b.Quote.TotalCents, domainpayment.CaptureAutomatic},
	}
	if b.Quote.DepositCents > 0 {
		wanted = append(wanted, intentSpec{domainpayment.PurposeDepositHold, b.Quote.DepositCents, domainpayment.CaptureManual})
	}

	result := make([]*domainpayment.Payment, 0, len(wanted))
	now := time.Now().UTC()
	for _, w := range wanted {
		if p, ok := active[w.purpose]; ok {
			result = append(result, p)
			continue
		}
		intent, err := o.Provider.CreateIntent(ctx, policies.IntentParams{
			BookingID:     string(b.ID),
			Purpose:       w.purpose,
			AmountCents:   w.amount,
			Currency:      b.Quote.Currency,
			CaptureMethod: w.capture,
		})
		if err != nil {
			return nil, o.providerFailure("create intent", b, err)
		}
		status := domainpayment.StatusPending
		if intent.Status != "" {
			status = domainpayment.MapProviderStatus(intent.Status)
		}
		p := &domainpayment.Payment{
			ID:            uuid.NewString(),
			BookingID:     b.ID,
			Purpose:       w.purpose,
			IntentID:      intent.ID,
			ClientSecret:  intent.ClientSecret,
			AmountCents:   w.amount,
			Currency:      b.Quote.Currency,
			CaptureMethod: w.capture,
			Status:        status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := unit.Payments().Save(ctx, p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// Reconcile fetches the provider status for every payment on the booking and
// persists the mapped status only when it differs from the stored value, so
// concurrent pollers converge without redundant writes. A booking awaiting
// payment is confirmed once its total charge is observed succeeded.
func (o *Orchestrator) Reconcile(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) ([]*domainpayment.Payment, error) {
	items, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, p := range items {
		intent, err := o.Provider.GetIntent(ctx, p.IntentID)
		if err != nil {
			return nil, o.providerFailure("get intent", b, err)
		}
		if intent.ClientSecret != "" && p.ClientSecret == "" {
			p.ClientSecret = intent.ClientSecret
		}
		if !p.ApplyProviderStatus(intent.Status, now) {
			continue
		}
		if err := unit.Payments().Save(ctx, p); err != nil {
			return nil, err
		}
		if o.Logger != nil {
			o.Logger.Info("payment reconciled", "booking_id", b.ID, "payment_id", p.ID, "status", p.Status)
		}
	}
	if b.Status == domainbooking.StatusAwaitingPayment && totalSucceeded(items) {
		if err := b.ConfirmPayment(now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Capture settles the booking total. Manual-capture intents are captured at
// the provider; automatic ones are re-fetched. On observed success the
// booking transitions to confirmed.
func (o *Orchestrator) Capture(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) (*domainpayment.Payment, error) {
	if b.Status != domainbooking.StatusAwaitingPayment {
		return nil, apperr.Conflict("booking is not awaiting payment")
	}
	items, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	var total *domainpayment.Payment
	for _, p := range items {
		if p.Purpose == domainpayment.PurposeBookingTotal && p.Active() {
			total = p
			break
		}
	}
	if total == nil {
		return nil, apperr.NotFound("no active payment for booking")
	}

	var intent policies.Intent
	if total.CaptureMethod == domainpayment.CaptureManual {
		intent, err = o.Provider.CaptureIntent(ctx, total.IntentID)
	} else {
		intent, err = o.Provider.GetIntent(ctx, total.IntentID)
	}
	if err != nil {
		return nil, o.providerFailure("capture intent", b, err)
	}

	now := time.Now().UTC()
	if total.ApplyProviderStatus(intent.Status, now) {
		if err := unit.Payments().Save(ctx, total); err != nil {
			return nil, err
		}
	}
	if total.Status != domainpayment.StatusSucceeded {
		return nil, apperr.Provider("payment not completed yet")
	}
	if err := b.ConfirmPayment(now); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, "booking cannot be confirmed", err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	return total, nil
}

// ReleaseIntents cancels any still-active intents when a booking is declined
// or cancelled before payment completed.
func (o *Orchestrator) ReleaseIntents(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	items, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, p := range items {
		if !p.Active() || p.Status == domainpayment.StatusSucceeded {
			continue
		}
		intent, err := o.Provider.CancelIntent(ctx, p.IntentID)
		if err != nil {
			return o.providerFailure("cancel intent", b, err)
		}
		if p.ApplyProviderStatus(intent.Status, now) {
			if err := unit.Payments().Save(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func totalSucceeded(items []*domainpayment.Payment) bool {
	for _, p := range items {
		if p.Purpose == domainpayment.PurposeBookingTotal && p.Status == domainpayment.StatusSucceeded {
			return true
		}
	}
	return false
}

func (o *Orchestrator) providerFailure(op string, b *domainbooking.Booking, err error) error {
	if o.Logger != nil {
		o.Logger.Warn("payment provider call failed", "op", op, "booking_id", b.ID, "error", err)
	}
	return apperr.Wrap(apperr.KindProvider, policies.GuestMessage(err), err)
}
