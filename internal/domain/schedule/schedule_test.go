package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/schedule"
	"staybook/internal/domain/shared/timewindow"
)

func window(t *testing.T, startHour, endHour int) timewindow.Window {
	t.Helper()
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	w, err := timewindow.New(day.Add(time.Duration(startHour)*time.Hour), day.Add(time.Duration(endHour)*time.Hour))
	require.NoError(t, err)
	return w
}

func TestClaimRejectsOverlap(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s := schedule.New("prop-1")

	require.NoError(t, s.Claim(window(t, 10, 14), "bk-1", now))

	assert.ErrorIs(t, s.Claim(window(t, 12, 16), "bk-2", now), schedule.ErrWindowTaken)
	assert.ErrorIs(t, s.Claim(window(t, 9, 11), "bk-2", now), schedule.ErrWindowTaken)
	assert.ErrorIs(t, s.Claim(window(t, 8, 18), "bk-2", now), schedule.ErrWindowTaken)
	assert.ErrorIs(t, s.Claim(window(t, 11, 13), "bk-2", now), schedule.ErrWindowTaken)
}

func TestClaimAllowsBackToBackWindows(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s := schedule.New("prop-1")

	require.NoError(t, s.Claim(window(t, 10, 14), "bk-1", now))
	require.NoError(t, s.Claim(window(t, 14, 18), "bk-2", now))
	require.NoError(t, s.Claim(window(t, 6, 10), "bk-3", now))

	assert.Len(t, s.Blocks, 3)
}

func TestReleaseFreesWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s := schedule.New("prop-1")
	w := window(t, 10, 14)

	require.NoError(t, s.Claim(w, "bk-1", now))
	assert.False(t, s.IsFree(w))
	assert.True(t, s.Holds("bk-1"))

	require.NoError(t, s.Release("bk-1", now))
	assert.True(t, s.IsFree(w))
	assert.False(t, s.Holds("bk-1"))

	require.NoError(t, s.Claim(w, "bk-2", now))
}

func TestReleaseUnknownClaimFails(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s := schedule.New("prop-1")

	assert.ErrorIs(t, s.Release("bk-missing", now), schedule.ErrClaimNotFound)

	require.NoError(t, s.Claim(window(t, 10, 14), "bk-1", now))
	require.NoError(t, s.Release("bk-1", now))
	assert.ErrorIs(t, s.Release("bk-1", now), schedule.ErrClaimNotFound)
}

func TestClaimAndReleaseRecordEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s := schedule.New("prop-1")

	require.NoError(t, s.Claim(window(t, 10, 14), "bk-1", now))
	require.NoError(t, s.Release("bk-1", now))

	evs := s.PendingEvents()
	require.Len(t, evs, 2)
	assert.Equal(t, "schedule.window_claimed", evs[0].EventName())
	assert.Equal(t, "schedule.window_released", evs[1].EventName())
	assert.Equal(t, "prop-1", evs[0].AggregateID())
}
