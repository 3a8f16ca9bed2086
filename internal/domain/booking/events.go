package booking

import (
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/timewindow"
)

type DraftCreated struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	GuestID    string
	Window     timewindow.Window
	TotalCents int64
	At         time.Time
}

func (e DraftCreated) EventName() string     { return "booking.draft_created" }
func (e DraftCreated) AggregateID() string   { return string(e.BookingID) }
func (e DraftCreated) OccurredAt() time.Time { return e.At }

type RequestSubmitted struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	Mode       string
	Status     string
	At         time.Time
}

func (e RequestSubmitted) EventName() string     { return "booking.request_submitted" }
func (e RequestSubmitted) AggregateID() string   { return string(e.BookingID) }
func (e RequestSubmitted) OccurredAt() time.Time { return e.At }

type RequestApproved struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	At         time.Time
}

func (e RequestApproved) EventName() string     { return "booking.request_approved" }
func (e RequestApproved) AggregateID() string   { return string(e.BookingID) }
func (e RequestApproved) OccurredAt() time.Time { return e.At }

type RequestDeclined struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	Reason     string
	At         time.Time
}

func (e RequestDeclined) EventName() string     { return "booking.request_declined" }
func (e RequestDeclined) AggregateID() string   { return string(e.BookingID) }
func (e RequestDeclined) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	Window     timewindow.Window
	TotalCents int64
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	Reason     string
	At         time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
