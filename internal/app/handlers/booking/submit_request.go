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
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
	domainquote "staybook/internal/domain/quote"
	domainschedule "staybook/internal/domain/schedule"
	"staybook/internal/domain/shared/events"
)

const submitRequestKey = "booking.submit_request"

type SubmitRequestCommand struct {
	BookingID   string
	PrincipalID string
}

func (c SubmitRequestCommand) Key() string { return submitRequestKey }

func (c SubmitRequestCommand) Validate() error {
	if c.BookingID == "" {
		return apperr.Validation("booking id required")
	}
	return nil
}

type SubmitRequestResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Mode      string `json:"mode"`
}

// SubmitRequestHandler moves a draft out of its staging state. The schedule
// claim and the booking transition commit in the same unit of work, so a
// version race on either aggregate rolls both back.
type SubmitRequestHandler struct {
	Locker  policies.PropertyLocker
	LockTTL time.Duration
	Orch    *payments.Orchestrator
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *SubmitRequestHandler) Handle(ctx context.Context, cmd SubmitRequestCommand) (*SubmitRequestResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	if err := authz.Authorize(authz.Principal{ID: cmd.PrincipalID}, b, nil, authz.ActionSubmit); err != nil {
		return nil, err
	}

	if h.Locker != nil {
		release, err := h.Locker.Acquire(ctx, string(b.PropertyID), h.lockTTL())
		if err != nil {
			if errors.Is(err, policies.ErrLockHeld) {
				return nil, apperr.Conflict("another booking for this property is being submitted")
			}
			// Advisory only; the schedule CAS still guards correctness.
			h.logger().Warn("property lock unavailable, relying on schedule version",
				slog.String("property_id", string(b.PropertyID)), slog.Any("error", err))
		} else {
			defer func() {
				if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
					h.logger().Warn("property lock release failed", slog.Any("error", rerr))
				}
			}()
		}
	}

	sched, err := unit.Schedules().ByProperty(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := sched.Claim(b.Window, string(b.ID), now); err != nil {
		if errors.Is(err, domainschedule.ErrWindowTaken) {
			return nil, apperr.Conflict("window is no longer available")
		}
		return nil, err
	}
	if err := unit.Schedules().Save(ctx, sched); err != nil {
		if errors.Is(err, domainschedule.ErrVersionConflict) {
			return nil, apperr.Conflict("window is no longer available")
		}
		return nil, err
	}

	if err := b.Submit(now); err != nil {
		return nil, mapTransitionErr(err)
	}

	if b.Mode == domainquote.ModeInstant && h.Orch != nil {
		if _, err := h.Orch.EnsureIntents(ctx, unit, b); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, b, sched); err != nil {
		return nil, err
	}

	return &SubmitRequestResult{
		BookingID: string(b.ID),
		Status:    string(b.Status),
		Mode:      string(b.Mode),
	}, nil
}

func (h *SubmitRequestHandler) lockTTL() time.Duration {
	if h.LockTTL > 0 {
		return h.LockTTL
	}
	return 10 * time.Second
}

func (h *SubmitRequestHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func mapTransitionErr(err error) error {
	if errors.Is(err, domainbooking.ErrInvalidTransition) {
		return apperr.Wrap(apperr.KindConflict, err.Error(), err)
	}
	return err
}

type eventSource interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

// recordEvents drains the pending events of each aggregate into the outbox.
func recordEvents(ctx context.Context, box outbox.Outbox, enc outbox.EventEncoder, sources ...eventSource) error {
	for _, src := range sources {
		pending := src.PendingEvents()
		src.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, box, enc, pending); err != nil {
			return err
		}
	}
	return nil
}

var _ commands.Handler[SubmitRequestCommand, *SubmitRequestResult] = (*SubmitRequestHandler)(nil)

// loadOwnedProperty resolves the property for host-side authorization.
func loadOwnedProperty(ctx context.Context, unit uow.UnitOfWork, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	prop, err := unit.Properties().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainproperty.ErrPropertyNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}
	return prop, nil
}
