package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	col := db.Collection("agg_payment")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PaymentRepository{col: col}
}

func (r *PaymentRepository) ByID(ctx context.Context, id string) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]*domainpayment.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"booking_id": string(bookingID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainpayment.Payment, 0)
	for cursor.Next(ctx) {
		var doc paymentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type paymentDocument struct {
	ID            string `bson:"_id"`
	BookingID     string `bson:"booking_id"`
	Purpose       string `bson:"purpose"`
	IntentID      string `bson:"intent_id"`
	ClientSecret  string `bson:"client_secret"`
	AmountCents   int64  `bson:"amount_cents"`
	Currency      string `bson:"currency"`
	CaptureMethod string `bson:"capture_method"`
	Status        string `bson:"status"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	Version       int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:            p.ID,
		BookingID:     string(p.BookingID),
		Purpose:       string(p.Purpose),
		IntentID:      p.IntentID,
		ClientSecret:  p.ClientSecret,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		CaptureMethod: string(p.CaptureMethod),
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.UnixMilli(),
		UpdatedAt:     p.UpdatedAt.UnixMilli(),
		Version:       p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:            d.ID,
		BookingID:     domainbooking.BookingID(d.BookingID),
		Purpose:       domainpayment.Purpose(d.Purpose),
		IntentID:      d.IntentID,
		ClientSecret:  d.ClientSecret,
		AmountCents:   d.AmountCents,
		Currency:      d.Currency,
		CaptureMethod: domainpayment.CaptureMethod(d.CaptureMethod),
		Status:        domainpayment.Status(d.Status),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}
