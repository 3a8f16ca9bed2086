package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
	domainquote "staybook/internal/domain/quote"
	"staybook/internal/domain/shared/timewindow"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByProperty(ctx context.Context, id domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"property_id": string(id)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID         string                `bson:"_id"`
	Kind       string                `bson:"kind"`
	PropertyID string                `bson:"property_id"`
	GuestID    string                `bson:"guest_id"`
	StartAt    int64                 `bson:"start_at"`
	EndAt      int64                 `bson:"end_at"`
	Guests     int                   `bson:"guests"`
	Mode       string                `bson:"mode"`
	Status     string                `bson:"status"`
	Quote      quoteDocument         `bson:"quote"`
	Event      *eventDetailsDocument `bson:"event,omitempty"`
	CreatedAt  int64                 `bson:"created_at"`
	UpdatedAt  int64                 `bson:"updated_at"`
	Version    int64                 `bson:"version"`
}

type quoteDocument struct {
	SubtotalCents    int64    `bson:"subtotal_cents"`
	FeesCents        int64    `bson:"fees_cents"`
	AddonsTotalCents int64    `bson:"addons_total_cents"`
	DepositCents     int64    `bson:"deposit_cents"`
	TotalCents       int64    `bson:"total_cents"`
	Currency         string   `bson:"currency"`
	Flags            []string `bson:"flags"`
	Mode             string   `bson:"mode"`
}

type eventDetailsDocument struct {
	EventType      string   `bson:"event_type"`
	Description    string   `bson:"description"`
	Alcohol        bool     `bson:"alcohol"`
	AmplifiedSound bool     `bson:"amplified_sound"`
	Vendors        []string `bson:"vendors"`
	Vehicles       int      `bson:"vehicles"`
	CrewSize       int      `bson:"crew_size"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:         string(b.ID),
		Kind:       string(b.Kind),
		PropertyID: string(b.PropertyID),
		GuestID:    b.GuestID,
		StartAt:    b.Window.Start.UnixMilli(),
		EndAt:      b.Window.End.UnixMilli(),
		Guests:     b.Guests,
		Mode:       string(b.Mode),
		Status:     string(b.Status),
		Quote: quoteDocument{
			SubtotalCents:    b.Quote.SubtotalCents,
			FeesCents:        b.Quote.FeesCents,
			AddonsTotalCents: b.Quote.AddonsTotalCents,
			DepositCents:     b.Quote.DepositCents,
			TotalCents:       b.Quote.TotalCents,
			Currency:         b.Quote.Currency,
			Flags:            b.Quote.Flags.Sorted(),
			Mode:             string(b.Quote.Mode),
		},
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
	if b.Event != nil {
		doc.Event = &eventDetailsDocument{
			EventType:      b.Event.EventType,
			Description:    b.Event.Description,
			Alcohol:        b.Event.Alcohol,
			AmplifiedSound: b.Event.AmplifiedSound,
			Vendors:        b.Event.Vendors,
			Vehicles:       b.Event.Vehicles,
			CrewSize:       b.Event.CrewSize,
		}
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	agg := &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		Kind:       domainquote.Kind(d.Kind),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		GuestID:    d.GuestID,
		Window:     timewindow.Window{Start: timestampToTime(d.StartAt), End: timestampToTime(d.EndAt)},
		Guests:     d.Guests,
		Mode:       domainquote.Mode(d.Mode),
		Status:     domainbooking.Status(d.Status),
		Quote: domainquote.Breakdown{
			SubtotalCents:    d.Quote.SubtotalCents,
			FeesCents:        d.Quote.FeesCents,
			AddonsTotalCents: d.Quote.AddonsTotalCents,
			DepositCents:     d.Quote.DepositCents,
			TotalCents:       d.Quote.TotalCents,
			Currency:         d.Quote.Currency,
			Flags:            domainquote.FlagSetFromStrings(d.Quote.Flags),
			Mode:             domainquote.Mode(d.Quote.Mode),
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.Event != nil {
		agg.Event = &domainbooking.EventDetails{
			EventType:      d.Event.EventType,
			Description:    d.Event.Description,
			Alcohol:        d.Event.Alcohol,
			AmplifiedSound: d.Event.AmplifiedSound,
			Vendors:        d.Event.Vendors,
			Vehicles:       d.Event.Vehicles,
			CrewSize:       d.Event.CrewSize,
		}
	}
	return agg
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
