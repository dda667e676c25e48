package repository

import (
	"context"
	"intervue/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type slotRepo struct {
	collection *mongo.Collection
}

func NewSlotRepo(db *mongo.Database) SlotRepo {
	return &slotRepo{
		collection: db.Collection("slots"),
	}
}

// statusStage recomputes status from the capacity pair written by the
// previous pipeline stage.
func statusStage() bson.M {
	return bson.M{"$set": bson.M{
		"status": bson.M{"$switch": bson.M{
			"branches": bson.A{
				bson.M{
					"case": bson.M{"$gte": bson.A{"$currentCandidates", "$maxCandidates"}},
					"then": model.SlotBooked,
				},
				bson.M{
					"case": bson.M{"$lte": bson.A{"$currentCandidates", 0}},
					"then": model.SlotAvailable,
				},
			},
			"default": model.SlotPending,
		}},
	}}
}

func (r *slotRepo) Create(ctx context.Context, slot *model.Slot) error {
	_, err := r.collection.InsertOne(ctx, slot)
	return translate(err)
}

func (r *slotRepo) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	return findOne[model.Slot](ctx, r.collection, bson.M{"_id": id})
}

func (r *slotRepo) ListByDay(ctx context.Context, dayID string) ([]*model.Slot, error) {
	return r.find(ctx, bson.M{"dayId": dayID})
}

func (r *slotRepo) ListByInterviewerAndDay(ctx context.Context, interviewerID, dayID string) ([]*model.Slot, error) {
	return r.find(ctx, bson.M{"dayId": dayID, "interviewerId": interviewerID})
}

func (r *slotRepo) find(ctx context.Context, filter bson.M) ([]*model.Slot, error) {
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Slot](ctx, cur)
}

func (r *slotRepo) CountByDay(ctx context.Context, dayID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"dayId": dayID})
}

func (r *slotRepo) Reserve(ctx context.Context, id string) (*model.Slot, error) {
	return r.adjust(ctx, reserveFilter(id), 1)
}

func (r *slotRepo) Release(ctx context.Context, id string) (*model.Slot, error) {
	return r.adjust(ctx, releaseFilter(id), -1)
}

func (r *slotRepo) adjust(ctx context.Context, filter bson.M, delta int) (*model.Slot, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Slot](r.collection.FindOneAndUpdate(ctx, filter, capacityUpdate(delta, time.Now()), opts))
}

func (r *slotRepo) UpdateDetails(ctx context.Context, id string, d SlotDetails) (*model.Slot, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Slot](r.collection.FindOneAndUpdate(ctx, detailsFilter(id, d), detailsUpdate(d), opts))
}

// reserveFilter matches the slot only while it has a free place
func reserveFilter(id string) bson.M {
	return bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$currentCandidates", "$maxCandidates"}},
	}
}

func releaseFilter(id string) bson.M {
	return bson.M{
		"_id":               id,
		"currentCandidates": bson.M{"$gt": 0},
	}
}

// capacityUpdate moves currentCandidates by delta and rederives status in
// the same write
func capacityUpdate(delta int, at time.Time) bson.A {
	return bson.A{
		bson.M{"$set": bson.M{
			"currentCandidates": bson.M{"$add": bson.A{"$currentCandidates", delta}},
			"updatedAt":         at,
		}},
		statusStage(),
	}
}

func detailsFilter(id string, d SlotDetails) bson.M {
	return bson.M{
		"_id":               id,
		"currentCandidates": bson.M{"$lte": d.MaxCandidates},
	}
}

func detailsUpdate(d SlotDetails) bson.A {
	// Inside a pipeline a string starting with "$" is a field path.
	return bson.A{
		bson.M{"$set": bson.M{
			"startTime":     bson.M{"$literal": d.StartTime},
			"endTime":       bson.M{"$literal": d.EndTime},
			"maxCandidates": d.MaxCandidates,
			"notes":         bson.M{"$literal": d.Notes},
			"updatedAt":     d.UpdatedAt,
		}},
		statusStage(),
	}
}

func unreservedFilter(id string) bson.M {
	return bson.M{
		"_id":               id,
		"currentCandidates": bson.M{"$lte": 0},
	}
}

func (r *slotRepo) DeleteUnreserved(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, unreservedFilter(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
