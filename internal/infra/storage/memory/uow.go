package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainschedule "staybook/internal/domain/schedule"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertyRepo *PropertyRepository
	BookingRepo  *BookingRepository
	PaymentRepo  *PaymentRepository
	ScheduleRepo *ScheduleRepository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a transaction boundary. Writes stage inside the unit and reach
// the shared stores only on Commit; a failed command therefore rolls back
// without leaving partial state, matching the mongo transaction semantics.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertyRepo == nil || f.BookingRepo == nil || f.PaymentRepo == nil || f.ScheduleRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		properties: &txPropertyRepo{base: f.PropertyRepo, staged: map[domainproperty.PropertyID]*domainproperty.Property{}},
		bookings:   &txBookingRepo{base: f.BookingRepo, staged: map[domainbooking.BookingID]*domainbooking.Booking{}},
		payments:   &txPaymentRepo{base: f.PaymentRepo, staged: map[string]*domainpayment.Payment{}},
		schedules: &txScheduleRepo{
			base:    f.ScheduleRepo,
			staged:  map[domainproperty.PropertyID]*domainschedule.Schedule{},
			readVer: map[domainproperty.PropertyID]int64{},
		},
	}, nil
}

// Unit is a uow.UnitOfWork that buffers writes until Commit. Reads see the
// unit's own staged writes first, then fall through to the shared stores.
type Unit struct {
	properties *txPropertyRepo
	bookings   *txBookingRepo
	payments   *txPaymentRepo
	schedules  *txScheduleRepo
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.properties
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Payments() domainpayment.Repository {
	return u.payments
}

func (u *Unit) Schedules() domainschedule.Repository {
	return u.schedules
}

// Commit applies the staged writes. The schedule snapshots go first since
// their version check is the only step that can fail.
func (u *Unit) Commit(ctx context.Context) error {
	if err := u.schedules.commit(); err != nil {
		return err
	}
	u.properties.commit()
	u.bookings.commit()
	u.payments.commit()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.properties.discard()
	u.bookings.discard()
	u.payments.discard()
	u.schedules.discard()
	return nil
}

var _ uow.UoWFactory = Factory{}

type txPropertyRepo struct {
	base   *PropertyRepository
	staged map[domainproperty.PropertyID]*domainproperty.Property
}

func (t *txPropertyRepo) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	if p, ok := t.staged[id]; ok {
		return cloneProperty(p), nil
	}
	return t.base.ByID(ctx, id)
}

func (t *txPropertyRepo) Save(ctx context.Context, prop *domainproperty.Property) error {
	t.staged[prop.ID] = cloneProperty(prop)
	return nil
}

func (t *txPropertyRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domainproperty.Property, error) {
	base, err := t.base.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[domainproperty.PropertyID]bool, len(base))
	out := make([]*domainproperty.Property, 0, len(base)+len(t.staged))
	for _, p := range base {
		seen[p.ID] = true
		if s, ok := t.staged[p.ID]; ok {
			if s.OwnedBy(ownerID) {
				out = append(out, cloneProperty(s))
			}
			continue
		}
		out = append(out, p)
	}
	for _, s := range t.staged {
		if !seen[s.ID] && s.OwnedBy(ownerID) {
			out = append(out, cloneProperty(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *txPropertyRepo) commit() {
	for _, p := range t.staged {
		t.base.apply(p)
	}
	t.staged = map[domainproperty.PropertyID]*domainproperty.Property{}
}

func (t *txPropertyRepo) discard() {
	t.staged = map[domainproperty.PropertyID]*domainproperty.Property{}
}

type txBookingRepo struct {
	base   *BookingRepository
	staged map[domainbooking.BookingID]*domainbooking.Booking
}

func (t *txBookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, ok := t.staged[id]; ok {
		return cloneBooking(b), nil
	}
	return t.base.ByID(ctx, id)
}

func (t *txBookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	b.Version++
	t.staged[b.ID] = cloneBooking(b)
	return nil
}

func (t *txBookingRepo) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	base, err := t.base.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(guestID)
	return t.overlay(base, func(b *domainbooking.Booking) bool { return b.GuestID == id }), nil
}

func (t *txBookingRepo) ListByProperty(ctx context.Context, id domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	base, err := t.base.ListByProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.overlay(base, func(b *domainbooking.Booking) bool { return b.PropertyID == id }), nil
}

func (t *txBookingRepo) overlay(base []*domainbooking.Booking, match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	seen := make(map[domainbooking.BookingID]bool, len(base))
	out := make([]*domainbooking.Booking, 0, len(base)+len(t.staged))
	for _, b := range base {
		seen[b.ID] = true
		if s, ok := t.staged[b.ID]; ok {
			if match(s) {
				out = append(out, cloneBooking(s))
			}
			continue
		}
		out = append(out, b)
	}
	for _, s := range t.staged {
		if !seen[s.ID] && match(s) {
			out = append(out, cloneBooking(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (t *txBookingRepo) commit() {
	for _, b := range t.staged {
		t.base.apply(b)
	}
	t.staged = map[domainbooking.BookingID]*domainbooking.Booking{}
}

func (t *txBookingRepo) discard() {
	t.staged = map[domainbooking.BookingID]*domainbooking.Booking{}
}

type txPaymentRepo struct {
	base   *PaymentRepository
	staged map[string]*domainpayment.Payment
}

func (t *txPaymentRepo) ByID(ctx context.Context, id string) (*domainpayment.Payment, error) {
	if p, ok := t.staged[id]; ok {
		return clonePayment(p), nil
	}
	return t.base.ByID(ctx, id)
}

func (t *txPaymentRepo) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]*domainpayment.Payment, error) {
	base, err := t.base.ByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(base))
	out := make([]*domainpayment.Payment, 0, len(base)+len(t.staged))
	for _, p := range base {
		seen[p.ID] = true
		if s, ok := t.staged[p.ID]; ok {
			if s.BookingID == bookingID {
				out = append(out, clonePayment(s))
			}
			continue
		}
		out = append(out, p)
	}
	for _, s := range t.staged {
		if !seen[s.ID] && s.BookingID == bookingID {
			out = append(out, clonePayment(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *txPaymentRepo) Save(ctx context.Context, p *domainpayment.Payment) error {
	p.Version++
	t.staged[p.ID] = clonePayment(p)
	return nil
}

func (t *txPaymentRepo) commit() {
	for _, p := range t.staged {
		t.base.apply(p)
	}
	t.staged = map[string]*domainpayment.Payment{}
}

func (t *txPaymentRepo) discard() {
	t.staged = map[string]*domainpayment.Payment{}
}

// txScheduleRepo stages schedule snapshots and remembers the version each
// property was first read at, so Commit can re-run the compare-and-swap
// against the shared store.
type txScheduleRepo struct {
	base    *ScheduleRepository
	staged  map[domainproperty.PropertyID]*domainschedule.Schedule
	readVer map[domainproperty.PropertyID]int64
}

func (t *txScheduleRepo) ByProperty(ctx context.Context, id domainproperty.PropertyID) (*domainschedule.Schedule, error) {
	if s, ok := t.staged[id]; ok {
		return cloneSchedule(s), nil
	}
	return t.base.ByProperty(ctx, id)
}

func (t *txScheduleRepo) Save(ctx context.Context, s *domainschedule.Schedule) error {
	current := int64(0)
	if prev, ok := t.staged[s.PropertyID]; ok {
		current = prev.Version
	} else {
		current = t.base.versionOf(s.PropertyID)
		t.readVer[s.PropertyID] = current
	}
	if current != s.Version {
		return domainschedule.ErrVersionConflict
	}
	s.Version++
	t.staged[s.PropertyID] = cloneSchedule(s)
	return nil
}

func (t *txScheduleRepo) commit() error {
	for id, s := range t.staged {
		if err := t.base.applySnapshot(s, t.readVer[id]); err != nil {
			return err
		}
	}
	t.staged = map[domainproperty.PropertyID]*domainschedule.Schedule{}
	t.readVer = map[domainproperty.PropertyID]int64{}
	return nil
}

func (t *txScheduleRepo) discard() {
	t.staged = map[domainproperty.PropertyID]*domainschedule.Schedule{}
	t.readVer = map[domainproperty.PropertyID]int64{}
}
