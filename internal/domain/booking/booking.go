package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/quote"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/timewindow"
)

var (
	ErrInvalidGuests     = errors.New("booking: guest count must be positive")
	ErrGuestRequired     = errors.New("booking: guest id required")
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrEmptyQuote        = errors.New("booking: quote total must be positive")
	ErrEventDetails      = errors.New("booking: event details required for event bookings")
)

type BookingID string

// Status is the closed set of lifecycle states. Transitions only advance
// along the table encoded in canTransition.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingReview   Status = "pending_review"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusConfirmed       Status = "confirmed"
	StatusDeclined        Status = "declined"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether the status is immutable (except for
// payment-status-driven metadata).
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusDeclined, StatusCancelled:
		return true
	case StatusDraft, StatusPendingReview, StatusAwaitingPayment:
		return false
	}
	return false
}

// Blocking reports whether a booking in this status claims its time window
// for the overlap invariant.
func (s Status) Blocking() bool {
	switch s {
	case StatusPendingReview, StatusAwaitingPayment, StatusConfirmed:
		return true
	case StatusDraft, StatusDeclined, StatusCancelled:
		return false
	}
	return false
}

// canTransition is the exhaustive transition table. Adding a status without
// updating this switch is a compile-visible omission in the tests.
func canTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPendingReview || to == StatusAwaitingPayment || to == StatusCancelled
	case StatusPendingReview:
		return to == StatusAwaitingPayment || to == StatusDeclined || to == StatusCancelled
	case StatusAwaitingPayment:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed, StatusDeclined, StatusCancelled:
		return false
	}
	return false
}

// EventDetails carries the kind=event specific fields.
type EventDetails struct {
	EventType      string
	Description    string
	Alcohol        bool
	AmplifiedSound bool
	Vendors        []string
	Vehicles       int
	CrewSize       int
}

// Booking is one reservation request moving through the lifecycle. The guest
// exclusively owns the booking; the property host holds approval rights.
type Booking struct {
	ID         BookingID
	Kind       quote.Kind
	PropertyID property.PropertyID
	GuestID    string
	Window     timewindow.Window
	Guests     int
	Mode       quote.Mode
	Status     Status
	Quote      quote.Breakdown
	Event      *EventDetails
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type CreateParams struct {
	ID         BookingID
	Kind       quote.Kind
	PropertyID property.PropertyID
	GuestID    string
	Window     timewindow.Window
	Guests     int
	Quote      quote.Breakdown
	Event      *EventDetails
	CreatedAt  time.Time
}

// NewDraft stages a booking with the quote attached at submission time; the
// embedded quote is never silently re-priced afterwards.
func NewDraft(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	if params.Quote.TotalCents <= 0 {
		return nil, ErrEmptyQuote
	}
	if params.Kind == quote.KindEvent && params.Event == nil {
		return nil, ErrEventDetails
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		Kind:       params.Kind,
		PropertyID: params.PropertyID,
		GuestID:    params.GuestID,
		Window:     params.Window,
		Guests:     params.Guests,
		Mode:       params.Quote.Mode,
		Status:     StatusDraft,
		Quote:      params.Quote,
		Event:      params.Event,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(DraftCreated{BookingID: b.ID, PropertyID: b.PropertyID, GuestID: b.GuestID, Window: b.Window, TotalCents: b.Quote.TotalCents, At: now})
	return b, nil
}

// Submit moves a draft to the state its mode dictates: instant bookings skip
// host review and go straight to awaiting_payment.
func (b *Booking) Submit(now time.Time) error {
	next := StatusPendingReview
	if b.Mode == quote.ModeInstant {
		next = StatusAwaitingPayment
	}
	if err := b.transition(next, now); err != nil {
		return err
	}
	b.Record(RequestSubmitted{BookingID: b.ID, PropertyID: b.PropertyID, Mode: string(b.Mode), Status: string(b.Status), At: b.UpdatedAt})
	return nil
}

// Approve is the host decision moving pending_review to awaiting_payment.
func (b *Booking) Approve(now time.Time) error {
	if b.Status != StatusPendingReview {
		return ErrInvalidTransition
	}
	if err := b.transition(StatusAwaitingPayment, now); err != nil {
		return err
	}
	b.Record(RequestApproved{BookingID: b.ID, PropertyID: b.PropertyID, At: b.UpdatedAt})
	return nil
}

// Decline is the host rejection of a pending request.
func (b *Booking) Decline(reason string, now time.Time) error {
	if b.Status != StatusPendingReview {
		return ErrInvalidTransition
	}
	if err := b.transition(StatusDeclined, now); err != nil {
		return err
	}
	b.Record(RequestDeclined{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// ConfirmPayment records a reconciled successful charge.
func (b *Booking) ConfirmPayment(now time.Time) error {
	if err := b.transition(StatusConfirmed, now); err != nil {
		return err
	}
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Window: b.Window, TotalCents: b.Quote.TotalCents, At: b.UpdatedAt})
	return nil
}

// Cancel moves any non-terminal booking to cancelled.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) transition(next Status, now time.Time) error {
	if !canTransition(b.Status, next) {
		return ErrInvalidTransition
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByProperty(ctx context.Context, id property.PropertyID) ([]*Booking, error)
}
