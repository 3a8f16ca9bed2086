package booking

import (
	"context"
	"sort"
	"strings"

	"staybook/internal/app/apperr"
	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
)

const (
	listGuestBookingsKey = "booking.list_guest"
	listHostBookingsKey  = "booking.list_host"

	allStatusesFilterValue = "all"
)

type ListGuestBookingsQuery struct {
	GuestID string
	Status  string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.BookingCollection{}, apperr.Unauthorized("authentication required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	filter := normalizeStatusFilter(q.Status)
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		if filter != allStatusesFilterValue && string(b.Status) != filter {
			continue
		}
		prop, _ := unit.Properties().ByID(execCtx, b.PropertyID)
		items = append(items, dto.MapBooking(b, prop))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	return dto.BookingCollection{Items: items}, nil
}

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

// ListHostBookingsHandler walks the host's properties and aggregates the
// bookings against each.
type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.BookingCollection{}, apperr.Unauthorized("authentication required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	props, err := unit.Properties().ListByOwner(execCtx, hostID)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	filter := normalizeStatusFilter(q.Status)
	items := make([]dto.Booking, 0)
	for _, prop := range props {
		bookings, err := unit.Bookings().ListByProperty(execCtx, prop.ID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		for _, b := range bookings {
			if filter != allStatusesFilterValue && string(b.Status) != filter {
				continue
			}
			items = append(items, dto.MapBooking(b, prop))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	return dto.BookingCollection{Items: items}, nil
}

func normalizeStatusFilter(status string) string {
	filter := strings.ToLower(strings.TrimSpace(status))
	if filter == "" {
		return allStatusesFilterValue
	}
	return filter
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
var _ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
