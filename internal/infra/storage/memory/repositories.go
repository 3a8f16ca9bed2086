package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainquote "staybook/internal/domain/quote"
	domainschedule "staybook/internal/domain/schedule"
	"staybook/internal/domain/shared/events"
)

// PropertyRepository is an in-memory implementation for demo purposes.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.PropertyID]*domainproperty.Property
}

// NewPropertyRepository builds an empty repository.
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		items: make(map[domainproperty.PropertyID]*domainproperty.Property),
	}
}

// ByID returns a copy of the property or property.ErrPropertyNotFound. Reads
// always copy so a caller mutating an aggregate cannot touch the store
// before Save.
func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prop, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return cloneProperty(prop), nil
}

// Save stores/updates a property entry.
func (r *PropertyRepository) Save(ctx context.Context, prop *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[prop.ID] = cloneProperty(prop)
	return nil
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainproperty.Property, 0)
	for _, prop := range r.items {
		if prop.OwnedBy(ownerID) {
			matches = append(matches, cloneProperty(prop))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

// apply stores a committed property snapshot.
func (r *PropertyRepository) apply(prop *domainproperty.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[prop.ID] = cloneProperty(prop)
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a copy of the booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

// apply stores a committed snapshot verbatim, without a version bump.
func (r *BookingRepository) apply(b *domainbooking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = cloneBooking(b)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(guestID)
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.GuestID == id {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListByProperty(ctx context.Context, id domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PropertyID == id {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// PaymentRepository stores payment rows in memory.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[string]*domainpayment.Payment
}

// NewPaymentRepository builds an empty payment repo.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[string]*domainpayment.Payment)}
}

func (r *PaymentRepository) ByID(ctx context.Context, id string) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainpayment.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainpayment.Payment, 0)
	for _, p := range r.items {
		if p.BookingID == bookingID {
			matches = append(matches, clonePayment(p))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version++
	r.items[p.ID] = clonePayment(p)
	return nil
}

// apply stores a committed snapshot verbatim, without a version bump.
func (r *PaymentRepository) apply(p *domainpayment.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = clonePayment(p)
}

// ScheduleRepository keeps per-property schedules in memory. Save enforces
// the same version compare-and-swap the mongo implementation does, so the
// submit race behaves identically across backends.
type ScheduleRepository struct {
	mu        sync.Mutex
	schedules map[domainproperty.PropertyID]*domainschedule.Schedule
	versions  map[domainproperty.PropertyID]int64
}

// NewScheduleRepository returns a repository initialized with empty schedules.
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[domainproperty.PropertyID]*domainschedule.Schedule),
		versions:  make(map[domainproperty.PropertyID]int64),
	}
}

// ByProperty retrieves a schedule, lazily creating it.
func (r *ScheduleRepository) ByProperty(ctx context.Context, id domainproperty.PropertyID) (*domainschedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		return cloneSchedule(s), nil
	}
	s := domainschedule.New(id)
	r.schedules[id] = s
	r.versions[id] = s.Version
	return cloneSchedule(s), nil
}

// Save persists a schedule snapshot when its version still matches.
func (r *ScheduleRepository) Save(ctx context.Context, s *domainschedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.versions[s.PropertyID]; ok && current != s.Version {
		return domainschedule.ErrVersionConflict
	}
	s.Version++
	r.schedules[s.PropertyID] = cloneSchedule(s)
	r.versions[s.PropertyID] = s.Version
	return nil
}

// versionOf reports the stored version, lazily creating the schedule the same
// way ByProperty does.
func (r *ScheduleRepository) versionOf(id domainproperty.PropertyID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.versions[id]; ok {
		return v
	}
	s := domainschedule.New(id)
	r.schedules[id] = s
	r.versions[id] = s.Version
	return s.Version
}

// applySnapshot commits a staged schedule when the stored version still equals
// the version the staging unit originally read.
func (r *ScheduleRepository) applySnapshot(s *domainschedule.Schedule, readVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.versions[s.PropertyID]; ok && current != readVersion {
		return domainschedule.ErrVersionConflict
	}
	r.schedules[s.PropertyID] = cloneSchedule(s)
	r.versions[s.PropertyID] = s.Version
	return nil
}

func cloneSchedule(s *domainschedule.Schedule) *domainschedule.Schedule {
	out := &domainschedule.Schedule{
		PropertyID: s.PropertyID,
		Blocks:     append([]domainschedule.Block(nil), s.Blocks...),
		Version:    s.Version,
	}
	return out
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	out := *p
	out.Addons = append([]domainproperty.Addon(nil), p.Addons...)
	return &out
}

// cloneBooking copies the aggregate. Pending domain events stay with the
// caller's instance; the store only ever holds drained state.
func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := *b
	out.EventRecorder = events.EventRecorder{}
	if b.Event != nil {
		ev := *b.Event
		ev.Vendors = append([]string(nil), b.Event.Vendors...)
		out.Event = &ev
	}
	if b.Quote.Flags != nil {
		flags := domainquote.NewFlagSet()
		for f := range b.Quote.Flags {
			flags.Add(f)
		}
		out.Quote.Flags = flags
	}
	return &out
}

func clonePayment(p *domainpayment.Payment) *domainpayment.Payment {
	out := *p
	return &out
}
