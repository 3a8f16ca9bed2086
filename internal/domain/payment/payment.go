package payment

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/booking"
)

var (
	ErrPaymentNotFound = errors.New("payment: not found")
	ErrDuplicateIntent = errors.New("payment: active payment already exists for purpose")
)

// Purpose distinguishes the main charge from the refundable deposit hold.
type Purpose string

const (
	PurposeBookingTotal Purpose = "booking_total"
	PurposeDepositHold  Purpose = "deposit_hold"
)

// Status is the local mirror of the provider intent status.
type Status string

const (
	StatusPending        Status = "pending"
	StatusRequiresAction Status = "requires_action"
	StatusSucceeded      Status = "succeeded"
	StatusCancelled      Status = "cancelled"
)

type CaptureMethod string

const (
	CaptureAutomatic CaptureMethod = "automatic"
	CaptureManual    CaptureMethod = "manual"
)

// MapProviderStatus translates a raw provider intent status into the local
// status using a fixed table. The mapping is total: statuses outside the
// table pass through unchanged.
func MapProviderStatus(provider string) Status {
	switch provider {
	case "succeeded":
		return StatusSucceeded
	case "requires_action", "requires_confirmation":
		return StatusRequiresAction
	case "canceled":
		return StatusCancelled
	default:
		return Status(provider)
	}
}

// Payment is one provider-backed charge or hold tied to a booking. Rows are
// created when the booking enters awaiting_payment, updated only by
// reconciliation, and never deleted.
type Payment struct {
	ID            string
	BookingID     booking.BookingID
	Purpose       Purpose
	IntentID      string
	ClientSecret  string
	AmountCents   int64
	Currency      string
	CaptureMethod CaptureMethod
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// Active reports whether the payment still counts against the
// one-active-payment-per-purpose invariant.
func (p *Payment) Active() bool {
	return p.Status != StatusCancelled
}

// ApplyProviderStatus reconciles the local mirror against an observed
// provider status. It reports whether anything changed, so pollers persist
// only real transitions.
func (p *Payment) ApplyProviderStatus(providerStatus string, now time.Time) bool {
	mapped := MapProviderStatus(providerStatus)
	if mapped == p.Status {
		return false
	}
	p.Status = mapped
	p.UpdatedAt = now.UTC()
	return true
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Payment, error)
	ByBooking(ctx context.Context, id booking.BookingID) ([]*Payment, error)
	Save(ctx context.Context, p *Payment) error
}
