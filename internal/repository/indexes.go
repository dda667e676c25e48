package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the lookup indexes and the unique constraints the
// booking workflow relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"days": {
			{Keys: bson.D{{Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"slots": {
			{Keys: bson.D{{Key: "dayId", Value: 1}, {Key: "interviewerId", Value: 1}, {Key: "startTime", Value: 1}}},
		},
		"reservations": {
			{Keys: bson.D{{Key: "candidateId", Value: 1}, {Key: "slotId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "interviewerId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "slotId", Value: 1}}},
		},
		"sessions": {
			{Keys: bson.D{{Key: "reservationId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "candidateId", Value: 1}}},
			{Keys: bson.D{{Key: "interviewerId", Value: 1}}},
		},
		"evaluations": {
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"leases": {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
