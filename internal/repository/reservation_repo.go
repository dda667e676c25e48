package repository

import (
	"context"
	"intervue/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reservationRepo struct {
	collection *mongo.Collection
}

func NewReservationRepo(db *mongo.Database) ReservationRepo {
	return &reservationRepo{
		collection: db.Collection("reservations"),
	}
}

func (r *reservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	_, err := r.collection.InsertOne(ctx, res)
	return translate(err)
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	return findOne[model.Reservation](ctx, r.collection, bson.M{"_id": id})
}

func (r *reservationRepo) FindByCandidateAndSlot(ctx context.Context, candidateID, slotID string) (*model.Reservation, error) {
	return findOne[model.Reservation](ctx, r.collection, bson.M{"candidateId": candidateID, "slotId": slotID})
}

func (r *reservationRepo) DeleteRejected(ctx context.Context, candidateID, slotID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"candidateId": candidateID,
		"slotId":      slotID,
		"status":      model.ReservationRejected,
	})
	return err
}

func (r *reservationRepo) Transition(ctx context.Context, id string, from model.ReservationStatus, resp model.ReservationResponse) (*model.Reservation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Reservation](r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, reservationTransition(resp), opts))
}

func reservationTransition(resp model.ReservationResponse) bson.M {
	set := bson.M{
		"status":    resp.Status,
		"updatedAt": resp.RespondedAt,
	}
	update := bson.M{"$set": set}
	if resp.Status == model.ReservationPending {
		// back to pending drops any previous response
		update["$unset"] = bson.M{"respondedAt": "", "respondedBy": "", "rejectionReason": ""}
	} else {
		set["respondedAt"] = resp.RespondedAt
		set["respondedBy"] = resp.RespondedBy
		if resp.RejectionReason != "" {
			set["rejectionReason"] = resp.RejectionReason
		}
	}
	return update
}

func (r *reservationRepo) List(ctx context.Context, f model.ReservationFilter) ([]*model.Reservation, error) {
	filter := bson.M{}
	if f.CandidateID != "" {
		filter["candidateId"] = f.CandidateID
	}
	if f.InterviewerID != "" {
		filter["interviewerId"] = f.InterviewerID
	}
	if f.SlotID != "" {
		filter["slotId"] = f.SlotID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Reservation](ctx, cur)
}

func (r *reservationRepo) Delete(ctx context.Context, id string, status model.ReservationStatus) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "status": status})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
