package repository

import (
	"context"
	"intervue/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type dayRepo struct {
	collection *mongo.Collection
}

func NewDayRepo(db *mongo.Database) DayRepo {
	return &dayRepo{
		collection: db.Collection("days"),
	}
}

func (r *dayRepo) Create(ctx context.Context, day *model.Day) error {
	_, err := r.collection.InsertOne(ctx, day)
	return translate(err)
}

func (r *dayRepo) GetByID(ctx context.Context, id string) (*model.Day, error) {
	return findOne[model.Day](ctx, r.collection, bson.M{"_id": id})
}

func (r *dayRepo) List(ctx context.Context, activeOnly bool) ([]*model.Day, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Day](ctx, cur)
}

func (r *dayRepo) Update(ctx context.Context, day *model.Day) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": day.ID}, day)
	return translate(err)
}

func (r *dayRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
