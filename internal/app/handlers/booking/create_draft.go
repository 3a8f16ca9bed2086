package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/apperr"
	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
	domainquote "staybook/internal/domain/quote"
	"staybook/internal/domain/shared/timewindow"
)

const createDraftKey = "booking.create_draft"

// CreateDraftCommand stages a booking. The quote is recomputed server-side
// from the same parameter tuple and embedded into the draft; the embedded
// quote is the one that sticks at submission.
type CreateDraftCommand struct {
	CommandID   string
	PropertyID  string
	GuestID     string
	Kind        string
	Start       time.Time
	End         time.Time
	Guests      int
	Vehicles    int
	Addons      []string
	Alcohol     bool
	Amplified   bool
	EventType   string
	Description string
	Vendors     []string
	CrewSize    int

	IdempotencyKeyV string
}

func (c CreateDraftCommand) Key() string { return createDraftKey }

func (c CreateDraftCommand) Validate() error {
	if c.PropertyID == "" {
		return apperr.Validation("property_id required")
	}
	if !domainquote.Kind(c.Kind).Valid() {
		return apperr.Validation("kind must be stay or event")
	}
	if c.Guests < 1 {
		return apperr.Validation("guests must be positive")
	}
	return nil
}

func (c CreateDraftCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateDraftCommand) ResultPrototype() any { return &CreateDraftResult{} }

type CreateDraftResult struct {
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
	Quote     dto.Quote `json:"quote"`
}

type CreateDraftHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
}

func (h *CreateDraftHandler) Handle(ctx context.Context, cmd CreateDraftCommand) (*CreateDraftResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	if cmd.GuestID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		if errors.Is(err, domainproperty.ErrPropertyNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}

	window, err := timewindow.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, apperr.Validation("end must be after start")
	}
	breakdown, err := domainquote.Compute(prop, domainquote.Input{
		Kind:           domainquote.Kind(cmd.Kind),
		Window:         window,
		Guests:         cmd.Guests,
		Vehicles:       cmd.Vehicles,
		Addons:         cmd.Addons,
		Alcohol:        cmd.Alcohol,
		AmplifiedSound: cmd.Amplified,
		EventType:      cmd.EventType,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	// Pre-flight only; the authoritative overlap guard runs at submit.
	sched, err := unit.Schedules().ByProperty(ctx, prop.ID)
	if err != nil {
		return nil, err
	}
	if !sched.IsFree(window) {
		return nil, apperr.Conflict("window is no longer available")
	}

	var details *domainbooking.EventDetails
	if domainquote.Kind(cmd.Kind) == domainquote.KindEvent {
		details = &domainbooking.EventDetails{
			EventType:      cmd.EventType,
			Description:    cmd.Description,
			Alcohol:        cmd.Alcohol,
			AmplifiedSound: cmd.Amplified,
			Vendors:        append([]string(nil), cmd.Vendors...),
			Vehicles:       cmd.Vehicles,
			CrewSize:       cmd.CrewSize,
		}
	}

	now := time.Now().UTC()
	draft, err := domainbooking.NewDraft(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		Kind:       domainquote.Kind(cmd.Kind),
		PropertyID: prop.ID,
		GuestID:    cmd.GuestID,
		Window:     window,
		Guests:     cmd.Guests,
		Quote:      breakdown,
		Event:      details,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	if err := unit.Bookings().Save(ctx, draft); err != nil {
		return nil, err
	}
	pending := draft.PendingEvents()
	draft.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	return &CreateDraftResult{
		BookingID: string(draft.ID),
		Status:    string(draft.Status),
		Quote:     dto.MapQuote(breakdown),
	}, nil
}

var _ middleware.IdempotentCommand = CreateDraftCommand{}
var _ commands.Handler[CreateDraftCommand, *CreateDraftResult] = (*CreateDraftHandler)(nil)
