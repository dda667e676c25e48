package repository

import (
	"context"
	"intervue/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type evaluationRepo struct {
	collection *mongo.Collection
}

func NewEvaluationRepo(db *mongo.Database) EvaluationRepo {
	return &evaluationRepo{
		collection: db.Collection("evaluations"),
	}
}

func (r *evaluationRepo) Create(ctx context.Context, eval *model.Evaluation) error {
	_, err := r.collection.InsertOne(ctx, eval)
	return translate(err)
}

func (r *evaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	return findOne[model.Evaluation](ctx, r.collection, bson.M{"_id": id})
}

func (r *evaluationRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Evaluation, error) {
	return findOne[model.Evaluation](ctx, r.collection, bson.M{"sessionId": sessionID})
}

func (r *evaluationRepo) UpdateScores(ctx context.Context, id string, criteria model.Criteria, overall float64, notes string, at time.Time) (*model.Evaluation, error) {
	update := bson.M{"$set": bson.M{
		"criteria":     criteria,
		"overallScore": overall,
		"notes":        notes,
		"updatedAt":    at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeResult[model.Evaluation](r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts))
}

func (r *evaluationRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
