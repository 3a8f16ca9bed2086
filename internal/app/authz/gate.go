package authz

import (
	"staybook/internal/app/apperr"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/property"
)

// Principal is the opaque authenticated identity handed in by the session
// provider. A zero Principal means no authentication at all.
type Principal struct {
	ID string
}

func (p Principal) Anonymous() bool {
	return p.ID == ""
}

// Action names a guarded booking operation.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionCancel  Action = "cancel"
	ActionCapture Action = "capture"
	ActionView    Action = "view"
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
)

// Authorize checks the principal's rights over the booking before any state
// mutation. Guest actions require ownership of the booking; host actions
// require ownership of the property; cancel is open to either side. Denial is
// always Forbidden, distinct from Unauthorized (no principal at all).
func Authorize(p Principal, b *booking.Booking, prop *property.Property, action Action) error {
	if p.Anonymous() {
		return apperr.Unauthorized("authentication required")
	}
	if b == nil {
		return apperr.NotFound("booking not found")
	}
	switch action {
	case ActionSubmit, ActionCapture, ActionView:
		if p.ID != b.GuestID {
			return apperr.Forbidden("booking belongs to another guest")
		}
		return nil
	case ActionApprove, ActionDecline:
		if prop == nil {
			return apperr.NotFound("property not found")
		}
		if !prop.OwnedBy(p.ID) {
			return apperr.Forbidden("caller does not manage this property")
		}
		return nil
	case ActionCancel:
		if p.ID == b.GuestID {
			return nil
		}
		if prop != nil && prop.OwnedBy(p.ID) {
			return nil
		}
		return apperr.Forbidden("caller cannot cancel this booking")
	}
	return apperr.Forbidden("unknown action")
}
