package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrOwnerRequired    = errors.New("property: owner id required")
	ErrTitleRequired    = errors.New("property: title required")
	ErrInvalidRates     = errors.New("property: rates must be non-negative")
	ErrUnknownAddon     = errors.New("property: unknown add-on")
)

type PropertyID string

// Addon is a host-defined extra a guest can select when quoting.
type Addon struct {
	ID         string
	Name       string
	PriceCents int64
}

// Property carries the pricing and policy constants the quote engine and the
// booking flow read. The host (OwnerID or CreatedBy) holds approval rights
// over bookings on the property.
type Property struct {
	ID        PropertyID
	OwnerID   string
	CreatedBy string
	Title     string
	Currency  string

	NightlyRateCents int64
	HourlyRateCents  int64
	DayRateCents     int64
	DayRateHours     int
	MinHours         int
	CleaningFeeCents int64
	DepositCents     int64

	MaxGuests       int
	ParkingCapacity int
	// CurfewHour is the UTC hour after which an event end is flagged LATE_END.
	// Zero means no curfew.
	CurfewHour       int
	AllowInstantBook bool

	Addons []Addon

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateParams struct {
	ID               PropertyID
	OwnerID          string
	CreatedBy        string
	Title            string
	Currency         string
	NightlyRateCents int64
	HourlyRateCents  int64
	DayRateCents     int64
	DayRateHours     int
	MinHours         int
	CleaningFeeCents int64
	DepositCents     int64
	MaxGuests        int
	ParkingCapacity  int
	CurfewHour       int
	AllowInstantBook bool
	Addons           []Addon
	Now              time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.NightlyRateCents < 0 || params.HourlyRateCents < 0 || params.DayRateCents < 0 ||
		params.CleaningFeeCents < 0 || params.DepositCents < 0 {
		return nil, ErrInvalidRates
	}
	now := params.Now.UTC()
	createdBy := params.CreatedBy
	if createdBy == "" {
		createdBy = params.OwnerID
	}
	currency := strings.TrimSpace(params.Currency)
	if currency == "" {
		currency = "USD"
	}
	cur, err := money.New(0, currency)
	if err != nil {
		return nil, err
	}
	maxGuests := params.MaxGuests
	if maxGuests <= 0 {
		maxGuests = 1
	}
	return &Property{
		ID:               params.ID,
		OwnerID:          params.OwnerID,
		CreatedBy:        createdBy,
		Title:            params.Title,
		Currency:         cur.Currency,
		NightlyRateCents: params.NightlyRateCents,
		HourlyRateCents:  params.HourlyRateCents,
		DayRateCents:     params.DayRateCents,
		DayRateHours:     params.DayRateHours,
		MinHours:         params.MinHours,
		CleaningFeeCents: params.CleaningFeeCents,
		DepositCents:     params.DepositCents,
		MaxGuests:        maxGuests,
		ParkingCapacity:  params.ParkingCapacity,
		CurfewHour:       params.CurfewHour,
		AllowInstantBook: params.AllowInstantBook,
		Addons:           append([]Addon(nil), params.Addons...),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AddonByID resolves a selected add-on identifier against the host's catalog.
func (p *Property) AddonByID(id string) (Addon, bool) {
	for _, a := range p.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

// OwnedBy reports whether the principal id holds host rights on the property.
func (p *Property) OwnedBy(principalID string) bool {
	if principalID == "" {
		return false
	}
	return principalID == p.OwnerID || principalID == p.CreatedBy
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Property, error)
}
