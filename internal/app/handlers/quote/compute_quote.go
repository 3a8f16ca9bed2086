package quote

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/apperr"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainproperty "staybook/internal/domain/property"
	domainquote "staybook/internal/domain/quote"
	"staybook/internal/domain/shared/timewindow"
)

const (
	computeQuoteKey      = "quote.compute"
	checkAvailabilityKey = "quote.availability"
)

// ComputeQuoteQuery carries the full pricing parameter tuple. Computing a
// quote is side-effect free and deterministic.
type ComputeQuoteQuery struct {
	PropertyID     string
	Kind           string
	Start          time.Time
	End            time.Time
	Guests         int
	Vehicles       int
	Addons         []string
	Alcohol        bool
	AmplifiedSound bool
	EventType      string
}

func (q ComputeQuoteQuery) Key() string { return computeQuoteKey }

type ComputeQuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ComputeQuoteHandler) Handle(ctx context.Context, q ComputeQuoteQuery) (dto.Quote, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		if errors.Is(err, domainproperty.ErrPropertyNotFound) {
			return dto.Quote{}, apperr.NotFound("property not found")
		}
		return dto.Quote{}, err
	}

	window, err := timewindow.New(q.Start, q.End)
	if err != nil {
		return dto.Quote{}, apperr.Validation("end must be after start")
	}
	breakdown, err := domainquote.Compute(prop, domainquote.Input{
		Kind:           domainquote.Kind(q.Kind),
		Window:         window,
		Guests:         q.Guests,
		Vehicles:       q.Vehicles,
		Addons:         q.Addons,
		Alcohol:        q.Alcohol,
		AmplifiedSound: q.AmplifiedSound,
		EventType:      q.EventType,
	})
	if err != nil {
		return dto.Quote{}, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	return dto.MapQuote(breakdown), nil
}

// CheckAvailabilityQuery asks whether a window overlaps any claimed block.
// The answer is a pre-flight read; the authoritative guard runs at submit.
type CheckAvailabilityQuery struct {
	PropertyID string
	Start      time.Time
	End        time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	window, err := timewindow.New(q.Start, q.End)
	if err != nil {
		return dto.Availability{}, apperr.Validation("end must be after start")
	}
	sched, err := unit.Schedules().ByProperty(execCtx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{PropertyID: q.PropertyID, Available: sched.IsFree(window)}, nil
}

var _ queries.Handler[ComputeQuoteQuery, dto.Quote] = (*ComputeQuoteHandler)(nil)
var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
