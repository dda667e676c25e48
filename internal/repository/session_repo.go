package repository

import (
	"context"
	"intervue/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return translate(err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return findOne[model.Session](ctx, r.collection, bson.M{"_id": id})
}

func (r *sessionRepo) GetByReservationID(ctx context.Context, reservationID string) (*model.Session, error) {
	return findOne[model.Session](ctx, r.collection, bson.M{"reservationId": reservationID})
}

func (r *sessionRepo) Transition(ctx context.Context, id string, from []model.SessionStatus, change model.SessionChange) (*model.Session, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Session](r.collection.FindOneAndUpdate(ctx, filter, sessionTransition(change), opts))
}

func sessionTransition(change model.SessionChange) bson.M {
	set := bson.M{
		"status":    change.Status,
		"updatedAt": change.UpdatedAt,
	}
	if change.ActualStartTime != nil {
		set["actualStartTime"] = change.ActualStartTime
	}
	if change.ActualEndTime != nil {
		set["actualEndTime"] = change.ActualEndTime
	}
	if change.Notes != nil {
		set["notes"] = *change.Notes
	}
	if change.CancelledReason != "" {
		set["cancelledReason"] = change.CancelledReason
	}
	if change.CancelledBy != "" {
		set["cancelledBy"] = change.CancelledBy
	}
	return bson.M{"$set": set}
}

func (r *sessionRepo) SetRecording(ctx context.Context, id, url string, at time.Time) (*model.Session, error) {
	update := bson.M{"$set": bson.M{"recordingUrl": url, "updatedAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Session](r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts))
}

func (r *sessionRepo) ListByParticipant(ctx context.Context, userID string) ([]*model.Session, error) {
	filter := bson.M{}
	if userID != "" {
		filter["$or"] = bson.A{
			bson.M{"candidateId": userID},
			bson.M{"interviewerId": userID},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Session](ctx, cur)
}

func (r *sessionRepo) Delete(ctx context.Context, id string, from []model.SessionStatus) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "status": bson.M{"$in": from}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
