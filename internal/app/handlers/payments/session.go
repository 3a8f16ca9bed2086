package payments

import (
	"context"
	"errors"

	"staybook/internal/app/apperr"
	"staybook/internal/app/authz"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const paymentSessionKey = "payments.session"

// PaymentSessionQuery returns the booking plus reconciled payment records for
// client-side payment-form confirmation. Reconciliation writes, so the
// handler manages its own writable unit; concurrent polls converge because
// statuses are only persisted when they change.
type PaymentSessionQuery struct {
	BookingID   string
	PrincipalID string
}

func (q PaymentSessionQuery) Key() string { return paymentSessionKey }

type PaymentSessionHandler struct {
	UoWFactory   uow.UoWFactory
	Orchestrator *Orchestrator
}

func (h *PaymentSessionHandler) Handle(ctx context.Context, q PaymentSessionQuery) (dto.PaymentSession, error) {
	unit, execCtx, managed, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentSession{}, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(execCtx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return dto.PaymentSession{}, apperr.NotFound("booking not found")
		}
		return dto.PaymentSession{}, err
	}
	if err := authz.Authorize(authz.Principal{ID: q.PrincipalID}, b, nil, authz.ActionView); err != nil {
		return dto.PaymentSession{}, err
	}

	items, err := h.Orchestrator.Reconcile(execCtx, unit, b)
	if err != nil {
		return dto.PaymentSession{}, err
	}

	prop, err := unit.Properties().ByID(execCtx, b.PropertyID)
	if err != nil {
		prop = nil
	}

	if managed {
		if err := unit.Commit(execCtx); err != nil {
			return dto.PaymentSession{}, err
		}
		committed = true
	}

	return dto.PaymentSession{
		Booking:  dto.MapBooking(b, prop),
		Payments: dto.MapPayments(items),
	}, nil
}

var _ queries.Handler[PaymentSessionQuery, dto.PaymentSession] = (*PaymentSessionHandler)(nil)
