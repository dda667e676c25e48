package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type leaseRepo struct {
	collection *mongo.Collection
}

func NewLeaseRepo(db *mongo.Database) LeaseRepo {
	return &leaseRepo{
		collection: db.Collection("leases"),
	}
}

// expiredLease matches key only once its lease has run out. A live lease
// misses, so the upsert collides on _id instead of overwriting it.
func expiredLease(key string, now time.Time) bson.M {
	return bson.M{"_id": key, "expiresAt": bson.M{"$lte": now}}
}

func (r *leaseRepo) Acquire(ctx context.Context, key, holder string, now, until time.Time) (bool, error) {
	_, err := r.collection.UpdateOne(ctx,
		expiredLease(key, now),
		bson.M{"$set": bson.M{"holder": holder, "expiresAt": until}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *leaseRepo) Release(ctx context.Context, key, holder string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "holder": holder})
	return err
}
