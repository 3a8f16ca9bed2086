package timewindow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/timewindow"
)

func mustWindow(t *testing.T, start, end time.Time) timewindow.Window {
	t.Helper()
	w, err := timewindow.New(start, end)
	require.NoError(t, err)
	return w
}

func TestNewRejectsInvertedWindow(t *testing.T) {
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	_, err := timewindow.New(at, at)
	assert.ErrorIs(t, err, timewindow.ErrInvalidWindow)
	_, err = timewindow.New(at, at.Add(-time.Hour))
	assert.ErrorIs(t, err, timewindow.ErrInvalidWindow)
}

func TestNightsCountsCalendarNights(t *testing.T) {
	// Check-in 15:00, check-out 11:00 three days later is three nights even
	// though the elapsed time is under 72 hours.
	w := mustWindow(t,
		time.Date(2026, 7, 10, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 13, 11, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, 3, w.Nights())

	sameDay := mustWindow(t,
		time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 10, 17, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, 0, sameDay.Nights())
}

func TestHoursRoundsUpPartialHours(t *testing.T) {
	start := time.Date(2026, 7, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, mustWindow(t, start, start.Add(3*time.Hour+30*time.Minute)).Hours())
	assert.Equal(t, 3, mustWindow(t, start, start.Add(3*time.Hour)).Hours())
	assert.Equal(t, 1, mustWindow(t, start, start.Add(10*time.Minute)).Hours())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	a := mustWindow(t, day.Add(10*time.Hour), day.Add(14*time.Hour))

	assert.True(t, a.Overlaps(mustWindow(t, day.Add(12*time.Hour), day.Add(16*time.Hour))))
	assert.True(t, a.Overlaps(mustWindow(t, day.Add(8*time.Hour), day.Add(11*time.Hour))))
	assert.True(t, a.Overlaps(mustWindow(t, day.Add(11*time.Hour), day.Add(12*time.Hour))))

	// Touching endpoints do not overlap.
	assert.False(t, a.Overlaps(mustWindow(t, day.Add(14*time.Hour), day.Add(18*time.Hour))))
	assert.False(t, a.Overlaps(mustWindow(t, day.Add(8*time.Hour), day.Add(10*time.Hour))))
}
