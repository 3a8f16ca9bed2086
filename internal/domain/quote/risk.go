package quote

import (
	"sort"
	"strings"
	"time"
)

// RiskFlag names a condition that forces request-to-book mode.
type RiskFlag string

const (
	FlagAlcohol        RiskFlag = "ALCOHOL"
	FlagAmplifiedSound RiskFlag = "AMPLIFIED_SOUND"
	FlagOverParking    RiskFlag = "OVER_PARKING"
	FlagLateEnd        RiskFlag = "LATE_END"
	FlagWedding        RiskFlag = "WEDDING"
	FlagProduction     RiskFlag = "PRODUCTION"
)

// FlagSet is an order-independent set of risk flags.
type FlagSet map[RiskFlag]struct{}

func NewFlagSet(flags ...RiskFlag) FlagSet {
	s := make(FlagSet, len(flags))
	for _, f := range flags {
		s.Add(f)
	}
	return s
}

func (s FlagSet) Add(f RiskFlag) {
	s[f] = struct{}{}
}

func (s FlagSet) Has(f RiskFlag) bool {
	_, ok := s[f]
	return ok
}

func (s FlagSet) Empty() bool {
	return len(s) == 0
}

// Sorted returns the flags as a stable, sorted string slice for persistence
// and wire encoding.
func (s FlagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

func (s FlagSet) Equal(other FlagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for f := range s {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

// FlagSetFromStrings rebuilds a set from its persisted form.
func FlagSetFromStrings(values []string) FlagSet {
	s := make(FlagSet, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s.Add(RiskFlag(v))
	}
	return s
}

// RiskParams are the event characteristics the assessor inspects.
type RiskParams struct {
	EventType       string
	Alcohol         bool
	AmplifiedSound  bool
	Vehicles        int
	ParkingCapacity int
	End             time.Time
	// CurfewHour is the UTC hour after which an end time is flagged; zero
	// disables the check.
	CurfewHour int
}

// Assess is a pure function over event parameters. Any non-empty result
// forces request-to-book regardless of the property's instant-book setting.
func Assess(p RiskParams) FlagSet {
	flags := NewFlagSet()
	if p.Alcohol {
		flags.Add(FlagAlcohol)
	}
	if p.AmplifiedSound {
		flags.Add(FlagAmplifiedSound)
	}
	if p.ParkingCapacity > 0 && p.Vehicles > p.ParkingCapacity {
		flags.Add(FlagOverParking)
	}
	if p.CurfewHour > 0 && !p.End.IsZero() {
		end := p.End.UTC()
		if end.Hour() >= p.CurfewHour || end.Hour() < 6 {
			flags.Add(FlagLateEnd)
		}
	}
	switch normalizeEventType(p.EventType) {
	case "wedding":
		flags.Add(FlagWedding)
	case "production", "film_shoot", "photo_shoot":
		flags.Add(FlagProduction)
	}
	return flags
}

func normalizeEventType(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
