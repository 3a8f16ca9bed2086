package payments

import (
	"context"
	"errors"
	"log/slog"

	"staybook/internal/app/apperr"
	"staybook/internal/app/authz"
	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const capturePaymentKey = "payments.capture"

type CapturePaymentCommand struct {
	BookingID   string
	PrincipalID string
}

func (c CapturePaymentCommand) Key() string { return capturePaymentKey }

func (c CapturePaymentCommand) Validate() error {
	if c.BookingID == "" {
		return apperr.Validation("booking id required")
	}
	return nil
}

type CapturePaymentResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
}

type CapturePaymentHandler struct {
	Orchestrator *Orchestrator
	Logger       *slog.Logger
}

func (h *CapturePaymentHandler) Handle(ctx context.Context, cmd CapturePaymentCommand) (*CapturePaymentResult, error) {
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
	if err := authz.Authorize(authz.Principal{ID: cmd.PrincipalID}, b, nil, authz.ActionCapture); err != nil {
		return nil, err
	}

	p, err := h.Orchestrator.Capture(ctx, unit, b)
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("payment captured", "booking_id", b.ID, "payment_id", p.ID)
	}
	return &CapturePaymentResult{BookingID: string(b.ID), Status: string(b.Status), PaymentID: p.ID}, nil
}

var _ commands.Handler[CapturePaymentCommand, *CapturePaymentResult] = (*CapturePaymentHandler)(nil)
