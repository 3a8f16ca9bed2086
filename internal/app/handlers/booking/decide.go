package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/apperr"
	"staybook/internal/app/authz"
	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/payments"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainschedule "staybook/internal/domain/schedule"
)

const (
	approveRequestKey = "booking.approve_request"
	declineRequestKey = "booking.decline_request"
)

type ApproveRequestCommand struct {
	BookingID   string
	PrincipalID string
}

func (c ApproveRequestCommand) Key() string { return approveRequestKey }

func (c ApproveRequestCommand) Validate() error {
	if c.BookingID == "" {
		return apperr.Validation("booking id required")
	}
	return nil
}

type DeclineRequestCommand struct {
	BookingID   string
	PrincipalID string
	Reason      string
}

func (c DeclineRequestCommand) Key() string { return declineRequestKey }

func (c DeclineRequestCommand) Validate() error {
	if c.BookingID == "" {
		return apperr.Validation("booking id required")
	}
	return nil
}

type DecisionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// ApproveRequestHandler moves a reviewed request toward payment. Intent
// creation happens inside the same unit of work as the transition, so a
// provider failure leaves the request in review.
type ApproveRequestHandler struct {
	Orch    *payments.Orchestrator
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
}

func (h *ApproveRequestHandler) Handle(ctx context.Context, cmd ApproveRequestCommand) (*DecisionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	prop, err := loadOwnedProperty(ctx, unit, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Principal{ID: cmd.PrincipalID}, b, prop, authz.ActionApprove); err != nil {
		return nil, err
	}

	if err := b.Approve(time.Now().UTC()); err != nil {
		return nil, mapTransitionErr(err)
	}
	if h.Orch != nil {
		if _, err := h.Orch.EnsureIntents(ctx, unit, b); err != nil {
			return nil, err
		}
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	return &DecisionResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

// DeclineRequestHandler rejects a pending request and frees its window.
type DeclineRequestHandler struct {
	Orch    *payments.Orchestrator
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *DeclineRequestHandler) Handle(ctx context.Context, cmd DeclineRequestCommand) (*DecisionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	prop, err := loadOwnedProperty(ctx, unit, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Principal{ID: cmd.PrincipalID}, b, prop, authz.ActionDecline); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := b.Decline(cmd.Reason, now); err != nil {
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

var _ commands.Handler[ApproveRequestCommand, *DecisionResult] = (*ApproveRequestHandler)(nil)
var _ commands.Handler[DeclineRequestCommand, *DecisionResult] = (*DeclineRequestHandler)(nil)

func loadBooking(ctx context.Context, unit uow.UnitOfWork, id string) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	return b, nil
}

// releaseWindow frees the schedule claim held by the booking, if any. Drafts
// never claimed, so a missing claim is not an error.
func releaseWindow(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) (*domainschedule.Schedule, error) {
	sched, err := unit.Schedules().ByProperty(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if !sched.Holds(string(b.ID)) {
		return nil, nil
	}
	if err := sched.Release(string(b.ID), now); err != nil {
		return nil, err
	}
	if err := unit.Schedules().Save(ctx, sched); err != nil {
		if errors.Is(err, domainschedule.ErrVersionConflict) {
			return nil, apperr.Conflict("schedule was modified concurrently")
		}
		return nil, err
	}
	return sched, nil
}
