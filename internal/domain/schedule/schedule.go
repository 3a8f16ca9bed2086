package schedule

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/timewindow"
)

var (
	ErrWindowTaken     = errors.New("schedule: window overlaps an existing claim")
	ErrClaimNotFound   = errors.New("schedule: claim not found")
	ErrVersionConflict = errors.New("schedule: concurrent modification")
)

// Block is a claimed time window on a property's schedule. Claims are written
// when a booking leaves draft and released on decline or cancel.
type Block struct {
	Window    timewindow.Window
	BookingID string
	CreatedAt time.Time
}

// Schedule is the per-property serialization point for the no-double-booking
// invariant. Saving a schedule is a compare-and-swap on Version, so two
// concurrent submits for overlapping windows cannot both land.
type Schedule struct {
	PropertyID property.PropertyID
	Blocks     []Block
	Version    int64
	events.EventRecorder
}

func New(id property.PropertyID) *Schedule {
	return &Schedule{PropertyID: id}
}

// IsFree reports whether the window overlaps no existing claim.
func (s *Schedule) IsFree(w timewindow.Window) bool {
	for _, block := range s.Blocks {
		if block.Window.Overlaps(w) {
			return false
		}
	}
	return true
}

// Claim appends a block for the booking or fails when the window is taken.
func (s *Schedule) Claim(w timewindow.Window, bookingID string, now time.Time) error {
	if !s.IsFree(w) {
		return ErrWindowTaken
	}
	s.Blocks = append(s.Blocks, Block{Window: w, BookingID: bookingID, CreatedAt: now.UTC()})
	s.Record(WindowClaimed{PropertyID: s.PropertyID, BookingID: bookingID, Window: w, At: now.UTC()})
	return nil
}

// Release drops the claim held by a booking. Releasing an absent claim is an
// error so callers notice double releases.
func (s *Schedule) Release(bookingID string, now time.Time) error {
	idx := -1
	for i, block := range s.Blocks {
		if block.BookingID == bookingID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrClaimNotFound
	}
	released := s.Blocks[idx]
	s.Blocks = append(s.Blocks[:idx], s.Blocks[idx+1:]...)
	s.Record(WindowReleased{PropertyID: s.PropertyID, BookingID: bookingID, Window: released.Window, At: now.UTC()})
	return nil
}

// Holds reports whether the booking currently owns a claim.
func (s *Schedule) Holds(bookingID string) bool {
	for _, block := range s.Blocks {
		if block.BookingID == bookingID {
			return true
		}
	}
	return false
}

type Repository interface {
	// ByProperty returns the schedule, lazily creating an empty one.
	ByProperty(ctx context.Context, id property.PropertyID) (*Schedule, error)
	// Save persists the schedule with compare-and-swap on Version.
	Save(ctx context.Context, s *Schedule) error
}

type WindowClaimed struct {
	PropertyID property.PropertyID
	BookingID  string
	Window     timewindow.Window
	At         time.Time
}

func (e WindowClaimed) EventName() string     { return "schedule.window_claimed" }
func (e WindowClaimed) AggregateID() string   { return string(e.PropertyID) }
func (e WindowClaimed) OccurredAt() time.Time { return e.At }

type WindowReleased struct {
	PropertyID property.PropertyID
	BookingID  string
	Window     timewindow.Window
	At         time.Time
}

func (e WindowReleased) EventName() string     { return "schedule.window_released" }
func (e WindowReleased) AggregateID() string   { return string(e.PropertyID) }
func (e WindowReleased) OccurredAt() time.Time { return e.At }
