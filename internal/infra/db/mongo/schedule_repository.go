package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "staybook/internal/domain/property"
	domainschedule "staybook/internal/domain/schedule"
	"staybook/internal/domain/shared/timewindow"
)

// ScheduleRepository persists one document per property. The version filter
// on Save makes the schedule the serialization point for the overlap
// invariant: two concurrent submits for the same property cannot both win.
type ScheduleRepository struct {
	col *mongo.Collection
}

func NewScheduleRepository(db *mongo.Database) *ScheduleRepository {
	return &ScheduleRepository{col: db.Collection("agg_schedule")}
}

func (r *ScheduleRepository) ByProperty(ctx context.Context, id domainproperty.PropertyID) (*domainschedule.Schedule, error) {
	var doc scheduleDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainschedule.New(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ScheduleRepository) Save(ctx context.Context, s *domainschedule.Schedule) error {
	doc := newScheduleDocument(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainschedule.ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainschedule.ErrVersionConflict
	}
	s.Version = doc.Version
	return nil
}

type scheduleDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	StartAt   int64  `bson:"start_at"`
	EndAt     int64  `bson:"end_at"`
	BookingID string `bson:"booking_id"`
	CreatedAt int64  `bson:"created_at"`
}

func newScheduleDocument(s *domainschedule.Schedule) scheduleDocument {
	blocks := make([]blockDocument, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		blocks = append(blocks, blockDocument{
			StartAt:   b.Window.Start.UnixMilli(),
			EndAt:     b.Window.End.UnixMilli(),
			BookingID: b.BookingID,
			CreatedAt: b.CreatedAt.UnixMilli(),
		})
	}
	return scheduleDocument{ID: string(s.PropertyID), Blocks: blocks, Version: s.Version}
}

func (d scheduleDocument) toAggregate() *domainschedule.Schedule {
	blocks := make([]domainschedule.Block, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		blocks = append(blocks, domainschedule.Block{
			Window:    timewindow.Window{Start: timestampToTime(b.StartAt), End: timestampToTime(b.EndAt)},
			BookingID: b.BookingID,
			CreatedAt: timestampToTime(b.CreatedAt),
		})
	}
	return &domainschedule.Schedule{
		PropertyID: domainproperty.PropertyID(d.ID),
		Blocks:     blocks,
		Version:    d.Version,
	}
}
