package timewindow

import (
	"errors"
	"time"
)

var ErrInvalidWindow = errors.New("timewindow: end must be after start")

// Window represents a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Window, error) {
	w := Window{Start: start.UTC(), End: end.UTC()}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidWindow
	}
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether two half-open windows intersect:
// [s1,e1) and [s2,e2) conflict iff s1 < e2 && s2 < e1.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Hours returns the duration in whole hours, rounding partial hours up.
func (w Window) Hours() int {
	minutes := int(w.End.Sub(w.Start).Minutes())
	hours := minutes / 60
	if minutes%60 != 0 {
		hours++
	}
	return hours
}

// Nights returns the number of nights between the start and end calendar
// dates, so a 15:00 check-in against an 11:00 check-out still counts full
// nights.
func (w Window) Nights() int {
	start := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(w.End.Year(), w.End.Month(), w.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

func (w Window) ContainsTime(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}
