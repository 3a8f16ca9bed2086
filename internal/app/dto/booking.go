package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
)

type PropertySnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type EventDetails struct {
	EventType      string   `json:"event_type"`
	Description    string   `json:"description,omitempty"`
	Alcohol        bool     `json:"alcohol"`
	AmplifiedSound bool     `json:"amplified_sound"`
	Vendors        []string `json:"vendors,omitempty"`
	Vehicles       int      `json:"vehicles"`
	CrewSize       int      `json:"crew_size,omitempty"`
}

type Booking struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	Property  PropertySnapshot `json:"property"`
	GuestID   string           `json:"guest_id"`
	StartAt   time.Time        `json:"start_at"`
	EndAt     time.Time        `json:"end_at"`
	Guests    int              `json:"guests"`
	Mode      string           `json:"mode"`
	Status    string           `json:"status"`
	Quote     Quote            `json:"quote"`
	Event     *EventDetails    `json:"event_details,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking, prop *domainproperty.Property) Booking {
	snapshot := PropertySnapshot{ID: string(b.PropertyID)}
	if prop != nil {
		snapshot.Title = prop.Title
	}
	out := Booking{
		ID:        string(b.ID),
		Kind:      string(b.Kind),
		Property:  snapshot,
		GuestID:   b.GuestID,
		StartAt:   b.Window.Start,
		EndAt:     b.Window.End,
		Guests:    b.Guests,
		Mode:      string(b.Mode),
		Status:    string(b.Status),
		Quote:     MapQuote(b.Quote),
		CreatedAt: b.CreatedAt,
	}
	if b.Event != nil {
		out.Event = &EventDetails{
			EventType:      b.Event.EventType,
			Description:    b.Event.Description,
			Alcohol:        b.Event.Alcohol,
			AmplifiedSound: b.Event.AmplifiedSound,
			Vendors:        append([]string(nil), b.Event.Vendors...),
			Vehicles:       b.Event.Vehicles,
			CrewSize:       b.Event.CrewSize,
		}
	}
	return out
}
