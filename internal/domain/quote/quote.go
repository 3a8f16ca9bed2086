package quote

import (
	"errors"
	"fmt"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/shared/timewindow"
)

var (
	ErrInvalidDuration = errors.New("quote: window duration must be positive")
	ErrInvalidGuests   = errors.New("quote: guest count out of range")
	ErrInvalidVehicles = errors.New("quote: vehicle count cannot be negative")
	ErrUnknownKind     = errors.New("quote: unknown booking kind")
)

// Kind distinguishes overnight stays from hourly event hires.
type Kind string

const (
	KindStay  Kind = "stay"
	KindEvent Kind = "event"
)

func (k Kind) Valid() bool {
	return k == KindStay || k == KindEvent
}

// Mode is the booking path the quote recommends.
type Mode string

const (
	ModeInstant Mode = "instant"
	ModeRequest Mode = "request"
)

// Input is the full parameter tuple the engine prices. Identical inputs
// always produce identical output.
type Input struct {
	Kind           Kind
	Window         timewindow.Window
	Guests         int
	Vehicles       int
	Addons         []string
	Alcohol        bool
	AmplifiedSound bool
	EventType      string
}

// Breakdown is the deterministic price result embedded into a draft booking.
type Breakdown struct {
	SubtotalCents    int64
	FeesCents        int64
	AddonsTotalCents int64
	DepositCents     int64
	TotalCents       int64
	Currency         string
	Flags            FlagSet
	Mode             Mode
}

// Compute prices a requested window against the property's rate card and
// delegates the mode decision to the risk assessor. Amounts are money values
// in integer minor units; a malformed rate card surfaces as an error.
func Compute(prop *property.Property, in Input) (Breakdown, error) {
	if !in.Kind.Valid() {
		return Breakdown{}, ErrUnknownKind
	}
	if err := in.Window.Validate(); err != nil {
		return Breakdown{}, ErrInvalidDuration
	}
	if in.Guests < 1 || in.Guests > prop.MaxGuests {
		return Breakdown{}, fmt.Errorf("%w: got %d, property allows 1..%d", ErrInvalidGuests, in.Guests, prop.MaxGuests)
	}
	if in.Vehicles < 0 {
		return Breakdown{}, ErrInvalidVehicles
	}

	var subtotal money.Money
	switch in.Kind {
	case KindStay:
		nights := in.Window.Nights()
		if nights < 1 {
			return Breakdown{}, ErrInvalidDuration
		}
		rate, err := money.New(prop.NightlyRateCents, prop.Currency)
		if err != nil {
			return Breakdown{}, err
		}
		subtotal = rate.Multiply(int64(nights))
	case KindEvent:
		hours := in.Window.Hours()
		if hours < 1 {
			return Breakdown{}, ErrInvalidDuration
		}
		billable := hours
		if billable < prop.MinHours {
			billable = prop.MinHours
		}
		if prop.DayRateHours > 0 && billable >= prop.DayRateHours && prop.DayRateCents > 0 {
			day, err := money.New(prop.DayRateCents, prop.Currency)
			if err != nil {
				return Breakdown{}, err
			}
			subtotal = day
		} else {
			rate, err := money.New(prop.HourlyRateCents, prop.Currency)
			if err != nil {
				return Breakdown{}, err
			}
			subtotal = rate.Multiply(int64(billable))
		}
	}

	addons, err := sumAddons(prop, in.Addons)
	if err != nil {
		return Breakdown{}, err
	}

	fees, err := money.New(prop.CleaningFeeCents, prop.Currency)
	if err != nil {
		return Breakdown{}, err
	}
	total, err := subtotal.Add(fees)
	if err != nil {
		return Breakdown{}, err
	}
	total, err = total.Add(addons)
	if err != nil {
		return Breakdown{}, err
	}
	deposit := prop.DepositCents

	flags := NewFlagSet()
	if in.Kind == KindEvent {
		flags = Assess(RiskParams{
			EventType:       in.EventType,
			Alcohol:         in.Alcohol,
			AmplifiedSound:  in.AmplifiedSound,
			Vehicles:        in.Vehicles,
			ParkingCapacity: prop.ParkingCapacity,
			End:             in.Window.End,
			CurfewHour:      prop.CurfewHour,
		})
	}

	mode := ModeRequest
	if flags.Empty() && prop.AllowInstantBook {
		mode = ModeInstant
	}

	return Breakdown{
		SubtotalCents:    subtotal.Cents,
		FeesCents:        fees.Cents,
		AddonsTotalCents: addons.Cents,
		DepositCents:     deposit,
		TotalCents:       total.Cents,
		Currency:         total.Currency,
		Flags:            flags,
		Mode:             mode,
	}, nil
}

func sumAddons(prop *property.Property, selected []string) (money.Money, error) {
	total, err := money.New(0, prop.Currency)
	if err != nil {
		return money.Money{}, err
	}
	for _, id := range selected {
		addon, ok := prop.AddonByID(id)
		if !ok {
			return money.Money{}, fmt.Errorf("%w: %s", property.ErrUnknownAddon, id)
		}
		price, err := money.New(addon.PriceCents, prop.Currency)
		if err != nil {
			return money.Money{}, err
		}
		total, err = total.Add(price)
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
