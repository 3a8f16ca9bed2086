package property_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/money"
)

func validParams() property.CreateParams {
	return property.CreateParams{
		ID:               "prop-1",
		OwnerID:          "host-1",
		Title:            "Harbor Loft",
		Currency:         "usd",
		NightlyRateCents: 18000,
		MaxGuests:        4,
		Addons: []property.Addon{
			{ID: "chairs", Name: "Folding chairs", PriceCents: 2500},
		},
		Now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewNormalizesDefaults(t *testing.T) {
	p, err := property.New(validParams())
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "host-1", p.CreatedBy)

	params := validParams()
	params.Currency = ""
	p, err = property.New(params)
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)

	params = validParams()
	params.MaxGuests = 0
	p, err = property.New(params)
	require.NoError(t, err)
	assert.Equal(t, 1, p.MaxGuests)
}

func TestNewGuards(t *testing.T) {
	params := validParams()
	params.OwnerID = "  "
	_, err := property.New(params)
	assert.ErrorIs(t, err, property.ErrOwnerRequired)

	params = validParams()
	params.Title = ""
	_, err = property.New(params)
	assert.ErrorIs(t, err, property.ErrTitleRequired)

	params = validParams()
	params.NightlyRateCents = -1
	_, err = property.New(params)
	assert.ErrorIs(t, err, property.ErrInvalidRates)

	params = validParams()
	params.Currency = "dollars"
	_, err = property.New(params)
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestAddonByID(t *testing.T) {
	p, err := property.New(validParams())
	require.NoError(t, err)

	addon, ok := p.AddonByID("chairs")
	require.True(t, ok)
	assert.Equal(t, int64(2500), addon.PriceCents)

	_, ok = p.AddonByID("bouncy-castle")
	assert.False(t, ok)
}

func TestOwnedBy(t *testing.T) {
	params := validParams()
	params.CreatedBy = "agent-1"
	p, err := property.New(params)
	require.NoError(t, err)

	assert.True(t, p.OwnedBy("host-1"))
	assert.True(t, p.OwnedBy("agent-1"))
	assert.False(t, p.OwnedBy("guest-1"))
}
