package quote_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/property"
	"staybook/internal/domain/quote"
	"staybook/internal/domain/shared/timewindow"
)

func testProperty(t *testing.T) *property.Property {
	t.Helper()
	prop, err := property.New(property.CreateParams{
		ID:               "prop-1",
		OwnerID:          "host-1",
		Title:            "Garden Villa",
		Currency:         "USD",
		NightlyRateCents: 18000,
		HourlyRateCents:  10000,
		DayRateCents:     60000,
		DayRateHours:     8,
		MinHours:         3,
		CleaningFeeCents: 5000,
		DepositCents:     40000,
		MaxGuests:        40,
		ParkingCapacity:  4,
		CurfewHour:       22,
		AllowInstantBook: true,
		Addons: []property.Addon{
			{ID: "chairs", Name: "Chairs", PriceCents: 2500},
			{ID: "sound", Name: "Sound system", PriceCents: 7000},
		},
		Now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return prop
}

func window(t *testing.T, start, end time.Time) timewindow.Window {
	t.Helper()
	w, err := timewindow.New(start, end)
	require.NoError(t, err)
	return w
}

func TestComputeStayPricesPerNight(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 4, 11, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{Kind: quote.KindStay, Window: w, Guests: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3*18000), b.SubtotalCents)
	assert.Equal(t, int64(5000), b.FeesCents)
	assert.Equal(t, int64(40000), b.DepositCents)
	assert.Equal(t, int64(3*18000+5000), b.TotalCents, "deposit stays out of the charge total")
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, quote.ModeInstant, b.Mode)
	assert.True(t, b.Flags.Empty())
}

func TestComputeIsDeterministic(t *testing.T) {
	prop := testProperty(t)
	in := quote.Input{
		Kind: quote.KindEvent,
		Window: window(t,
			time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 6, 14, 0, 0, 0, time.UTC),
		),
		Guests:  20,
		Addons:  []string{"chairs", "sound"},
		Alcohol: true,
	}

	first, err := quote.Compute(prop, in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := quote.Compute(prop, in)
		require.NoError(t, err)
		assert.Equal(t, first.TotalCents, again.TotalCents)
		assert.True(t, first.Flags.Equal(again.Flags))
		assert.Equal(t, first.Mode, again.Mode)
	}
}

func TestComputeEventBillsMinimumHours(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 11, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: w, Guests: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3*10000), b.SubtotalCents, "one booked hour still bills the three-hour minimum")
}

func TestComputeEventDayRateCap(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 18, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: w, Guests: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(60000), b.SubtotalCents, "ten hours cap at the day rate instead of 10x hourly")
}

func TestComputeEventPartialHoursRoundUp(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 13, 30, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: w, Guests: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4*10000), b.SubtotalCents)
}

func TestComputeAddonsAddedToTotal(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 14, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{
		Kind:   quote.KindEvent,
		Window: w,
		Guests: 10,
		Addons: []string{"chairs", "sound"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9500), b.AddonsTotalCents)
	assert.Equal(t, b.SubtotalCents+b.FeesCents+b.AddonsTotalCents, b.TotalCents)
}

func TestComputeUnknownAddonRejected(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 14, 0, 0, 0, time.UTC),
	)

	_, err := quote.Compute(prop, quote.Input{
		Kind:   quote.KindEvent,
		Window: w,
		Guests: 10,
		Addons: []string{"bounce-castle"},
	})
	assert.ErrorIs(t, err, property.ErrUnknownAddon)
}

func TestComputeValidation(t *testing.T) {
	prop := testProperty(t)
	valid := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 14, 0, 0, 0, time.UTC),
	)

	_, err := quote.Compute(prop, quote.Input{Kind: "banquet", Window: valid, Guests: 2})
	assert.ErrorIs(t, err, quote.ErrUnknownKind)

	_, err = quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: valid, Guests: 0})
	assert.ErrorIs(t, err, quote.ErrInvalidGuests)

	_, err = quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: valid, Guests: prop.MaxGuests + 1})
	assert.ErrorIs(t, err, quote.ErrInvalidGuests)

	_, err = quote.Compute(prop, quote.Input{Kind: quote.KindEvent, Window: valid, Guests: 5, Vehicles: -1})
	assert.ErrorIs(t, err, quote.ErrInvalidVehicles)
}

func TestComputeAlcoholForcesRequestMode(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 6, 14, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{
		Kind:    quote.KindEvent,
		Window:  w,
		Guests:  10,
		Alcohol: true,
	})
	require.NoError(t, err)
	assert.True(t, b.Flags.Has(quote.FlagAlcohol))
	assert.Equal(t, quote.ModeRequest, b.Mode, "any flag overrides the instant-book setting")
}

func TestComputeStayIgnoresRiskFlags(t *testing.T) {
	prop := testProperty(t)
	w := window(t,
		time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 3, 11, 0, 0, 0, time.UTC),
	)

	b, err := quote.Compute(prop, quote.Input{Kind: quote.KindStay, Window: w, Guests: 2, Alcohol: true})
	require.NoError(t, err)
	assert.True(t, b.Flags.Empty(), "risk assessment applies to events only")
	assert.Equal(t, quote.ModeInstant, b.Mode)
}
