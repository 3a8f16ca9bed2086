package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainschedule "staybook/internal/domain/schedule"
	"staybook/internal/domain/shared/timewindow"
	"staybook/internal/infra/storage/memory"
)

func TestPropertyLockerMutualExclusion(t *testing.T) {
	locker := memory.NewPropertyLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "prop-1", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "prop-1", time.Minute)
	assert.ErrorIs(t, err, policies.ErrLockHeld)

	// Other properties are independent.
	other, err := locker.Acquire(ctx, "prop-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	release2, err := locker.Acquire(ctx, "prop-1", time.Minute)
	require.NoError(t, err)

	// Releasing twice is harmless and does not free the successor's lock.
	require.NoError(t, release(ctx))
	_, err = locker.Acquire(ctx, "prop-1", time.Minute)
	assert.ErrorIs(t, err, policies.ErrLockHeld)
	require.NoError(t, release2(ctx))
}

func TestPropertyLockerExpiry(t *testing.T) {
	locker := memory.NewPropertyLocker()
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "prop-1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = locker.Acquire(ctx, "prop-1", time.Minute)
	assert.NoError(t, err)
}

func TestScheduleRepositoryEnforcesVersionCAS(t *testing.T) {
	repo := memory.NewScheduleRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	w, err := timewindow.New(now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	// Two readers load the same version; only the first writer lands.
	first, err := repo.ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	second, err := repo.ByProperty(ctx, "prop-1")
	require.NoError(t, err)

	require.NoError(t, first.Claim(w, "bk-1", now))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Claim(w, "bk-2", now))
	assert.ErrorIs(t, repo.Save(ctx, second), domainschedule.ErrVersionConflict)

	stored, err := repo.ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.True(t, stored.Holds("bk-1"))
	assert.False(t, stored.Holds("bk-2"))
}

func TestScheduleRepositoryReturnsIsolatedCopies(t *testing.T) {
	repo := memory.NewScheduleRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	w, err := timewindow.New(now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	loaded, err := repo.ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	require.NoError(t, loaded.Claim(w, "bk-1", now))

	// The unsaved claim is invisible to other readers.
	fresh, err := repo.ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.False(t, fresh.Holds("bk-1"))
}

func newFactory() memory.Factory {
	return memory.Factory{
		PropertyRepo: memory.NewPropertyRepository(),
		BookingRepo:  memory.NewBookingRepository(),
		PaymentRepo:  memory.NewPaymentRepository(),
		ScheduleRepo: memory.NewScheduleRepository(),
	}
}

func TestUnitStagesWritesUntilCommit(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	b := &domainbooking.Booking{ID: "bk-1", GuestID: "guest-1", Status: domainbooking.StatusDraft, CreatedAt: time.Now().UTC()}
	require.NoError(t, unit.Bookings().Save(ctx, b))

	// Staged writes are visible inside the unit but not outside it.
	inside, err := unit.Bookings().ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusDraft, inside.Status)

	other, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	_, err = other.Bookings().ByID(ctx, "bk-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	require.NoError(t, unit.Commit(ctx))
	got, err := other.Bookings().ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestUnitRollbackDiscardsStagedWrites(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()
	now := time.Now().UTC()
	w, err := timewindow.New(now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	sched, err := unit.Schedules().ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	require.NoError(t, sched.Claim(w, "bk-1", now))
	require.NoError(t, unit.Schedules().Save(ctx, sched))
	require.NoError(t, unit.Rollback(ctx))

	fresh, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	stored, err := fresh.Schedules().ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.False(t, stored.Holds("bk-1"))
}

func TestUnitCommitDetectsScheduleRace(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()
	now := time.Now().UTC()
	w, err := timewindow.New(now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	unitA, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	unitB, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	schedA, err := unitA.Schedules().ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	require.NoError(t, schedA.Claim(w, "bk-1", now))
	require.NoError(t, unitA.Schedules().Save(ctx, schedA))

	schedB, err := unitB.Schedules().ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	require.NoError(t, schedB.Claim(w, "bk-2", now))
	require.NoError(t, unitB.Schedules().Save(ctx, schedB))

	// Both units staged against the same stored version; only the first
	// commit lands.
	require.NoError(t, unitA.Commit(ctx))
	assert.ErrorIs(t, unitB.Commit(ctx), domainschedule.ErrVersionConflict)

	fresh, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	stored, err := fresh.Schedules().ByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.True(t, stored.Holds("bk-1"))
	assert.False(t, stored.Holds("bk-2"))
}
