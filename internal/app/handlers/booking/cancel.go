package booking

import (
	"context"
	"time"

	"staybook/internal/app/apperr"
	"staybook/internal/app/authz"
	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/payments"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainproperty "staybook/internal/domain/property"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID   string
	PrincipalID string
	Reason      string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Validate() error {
	if c.BookingID == "" {
		return apperr.Validation("booking id required")
	}
	return nil
}

// CancelBookingHandler cancels on behalf of the guest or the host. Any
// schedule claim is released and open intents are voided; a succeeded charge
// stays on record for out-of-band refund handling.
type CancelBookingHandler struct {
	Orch    *payments.Orchestrator
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*DecisionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	var prop *domainproperty.Property
	if cmd.PrincipalID != b.GuestID {
		if prop, err = loadOwnedProperty(ctx, unit, b.PropertyID); err != nil {
			return nil, err
		}
	}
	if err := authz.Authorize(authz.Principal{ID: cmd.PrincipalID}, b, prop, authz.ActionCancel); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return nil, mapTransitionErr(err)
	}
	sched, err := releaseWindow(ctx, unit, b, now)
	if err != nil {
		return nil, err
	}
	if h.Orch != nil {
		if err := h.Orch.ReleaseIntents(ctx, unit, b); err != nil {
			return nil, err
		}
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	sources := []eventSource{b}
	if sched != nil {
		sources = append(sources, sched)
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, sources...); err != nil {
		return nil, err
	}

	return &DecisionResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

var _ commands.Handler[CancelBookingCommand, *DecisionResult] = (*CancelBookingHandler)(nil)
