package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "staybook/internal/domain/property"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainproperty.Property, error) {
	filter := bson.M{"$or": []bson.M{{"owner_id": ownerID}, {"created_by": ownerID}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainproperty.Property, 0)
	for cursor.Next(ctx) {
		var doc propertyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type propertyDocument struct {
	ID               string          `bson:"_id"`
	OwnerID          string          `bson:"owner_id"`
	CreatedBy        string          `bson:"created_by"`
	Title            string          `bson:"title"`
	Currency         string          `bson:"currency"`
	NightlyRateCents int64           `bson:"nightly_rate_cents"`
	HourlyRateCents  int64           `bson:"hourly_rate_cents"`
	DayRateCents     int64           `bson:"day_rate_cents"`
	DayRateHours     int             `bson:"day_rate_hours"`
	MinHours         int             `bson:"min_hours"`
	CleaningFeeCents int64           `bson:"cleaning_fee_cents"`
	DepositCents     int64           `bson:"deposit_cents"`
	MaxGuests        int             `bson:"max_guests"`
	ParkingCapacity  int             `bson:"parking_capacity"`
	CurfewHour       int             `bson:"curfew_hour"`
	AllowInstantBook bool            `bson:"allow_instant_book"`
	Addons           []addonDocument `bson:"addons"`
	CreatedAt        int64           `bson:"created_at"`
	UpdatedAt        int64           `bson:"updated_at"`
}

type addonDocument struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	PriceCents int64  `bson:"price_cents"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	addons := make([]addonDocument, 0, len(p.Addons))
	for _, a := range p.Addons {
		addons = append(addons, addonDocument{ID: a.ID, Name: a.Name, PriceCents: a.PriceCents})
	}
	return propertyDocument{
		ID:               string(p.ID),
		OwnerID:          p.OwnerID,
		CreatedBy:        p.CreatedBy,
		Title:            p.Title,
		Currency:         p.Currency,
		NightlyRateCents: p.NightlyRateCents,
		HourlyRateCents:  p.HourlyRateCents,
		DayRateCents:     p.DayRateCents,
		DayRateHours:     p.DayRateHours,
		MinHours:         p.MinHours,
		CleaningFeeCents: p.CleaningFeeCents,
		DepositCents:     p.DepositCents,
		MaxGuests:        p.MaxGuests,
		ParkingCapacity:  p.ParkingCapacity,
		CurfewHour:       p.CurfewHour,
		AllowInstantBook: p.AllowInstantBook,
		Addons:           addons,
		CreatedAt:        p.CreatedAt.UnixMilli(),
		UpdatedAt:        p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	addons := make([]domainproperty.Addon, 0, len(d.Addons))
	for _, a := range d.Addons {
		addons = append(addons, domainproperty.Addon{ID: a.ID, Name: a.Name, PriceCents: a.PriceCents})
	}
	return &domainproperty.Property{
		ID:               domainproperty.PropertyID(d.ID),
		OwnerID:          d.OwnerID,
		CreatedBy:        d.CreatedBy,
		Title:            d.Title,
		Currency:         d.Currency,
		NightlyRateCents: d.NightlyRateCents,
		HourlyRateCents:  d.HourlyRateCents,
		DayRateCents:     d.DayRateCents,
		DayRateHours:     d.DayRateHours,
		MinHours:         d.MinHours,
		CleaningFeeCents: d.CleaningFeeCents,
		DepositCents:     d.DepositCents,
		MaxGuests:        d.MaxGuests,
		ParkingCapacity:  d.ParkingCapacity,
		CurfewHour:       d.CurfewHour,
		AllowInstantBook: d.AllowInstantBook,
		Addons:           addons,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
	}
}
