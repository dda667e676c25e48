package repository

import (
	"context"
	"intervue/internal/model"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func slotDoc(current, max int, status model.SlotStatus) bson.D {
	return bson.D{
		{Key: "_id", Value: "s1"},
		{Key: "dayId", Value: "d1"},
		{Key: "interviewerId", Value: "int-1"},
		{Key: "startTime", Value: "10:00"},
		{Key: "endTime", Value: "11:00"},
		{Key: "maxCandidates", Value: max},
		{Key: "currentCandidates", Value: current},
		{Key: "status", Value: status},
	}
}

func TestMongoSlotRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("reserve sends a guarded pipeline update", func(mt *mtest.T) {
		repo := NewSlotRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: slotDoc(1, 1, model.SlotBooked)}))

		slot, err := repo.Reserve(ctx, "s1")

		convey.Convey("The claimed slot comes back with its new status", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(slot, convey.ShouldNotBeNil)
			convey.So(slot.CurrentCandidates, convey.ShouldEqual, 1)
			convey.So(slot.Status, convey.ShouldEqual, model.SlotBooked)

			evt := mt.GetStartedEvent()
			convey.So(evt.CommandName, convey.ShouldEqual, "findAndModify")
			convey.So(evt.Command.Lookup("findAndModify").StringValue(), convey.ShouldEqual, "slots")
			convey.So(evt.Command.Lookup("new").Boolean(), convey.ShouldBeTrue)
			convey.So(evt.Command.Lookup("query", "_id").StringValue(), convey.ShouldEqual, "s1")

			lt, err := evt.Command.Lookup("query", "$expr", "$lt").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(lt), convey.ShouldEqual, 2)
			convey.So(lt[0].StringValue(), convey.ShouldEqual, "$currentCandidates")
			convey.So(lt[1].StringValue(), convey.ShouldEqual, "$maxCandidates")

			stages, err := evt.Command.Lookup("update").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(stages), convey.ShouldEqual, 2)
			convey.So(stages[1].Document().Lookup("$set", "status", "$switch").Type, convey.ShouldEqual, bson.TypeEmbeddedDocument)
		})
	})

	mt.Run("a full slot is a miss, not an error", func(mt *mtest.T) {
		repo := NewSlotRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		slot, err := repo.Reserve(ctx, "s1")

		convey.Convey("Reserve reports nil, nil", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(slot, convey.ShouldBeNil)
		})
	})

	mt.Run("release guards on a positive count", func(mt *mtest.T) {
		repo := NewSlotRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: slotDoc(0, 1, model.SlotAvailable)}))

		slot, err := repo.Release(ctx, "s1")

		convey.Convey("The filter carries the floor", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(slot.Status, convey.ShouldEqual, model.SlotAvailable)

			evt := mt.GetStartedEvent()
			convey.So(evt.Command.Lookup("query", "currentCandidates", "$gt").AsInt64(), convey.ShouldEqual, int64(0))
		})
	})

	mt.Run("detail edits keep user text literal", func(mt *mtest.T) {
		repo := NewSlotRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: slotDoc(0, 3, model.SlotAvailable)}))

		_, err := repo.UpdateDetails(ctx, "s1", SlotDetails{StartTime: "10:00", EndTime: "11:00", MaxCandidates: 3, Notes: "$status", UpdatedAt: time.Now()})

		convey.Convey("Notes are wrapped in $literal and the floor is in the filter", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)

			evt := mt.GetStartedEvent()
			convey.So(evt.Command.Lookup("query", "currentCandidates", "$lte").AsInt64(), convey.ShouldEqual, int64(3))
			stages, err := evt.Command.Lookup("update").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(stages[0].Document().Lookup("$set", "notes", "$literal").StringValue(), convey.ShouldEqual, "$status")
		})
	})

	mt.Run("delete requires no held places", func(mt *mtest.T) {
		repo := NewSlotRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		ok, err := repo.DeleteUnreserved(ctx, "s1")

		convey.Convey("Nothing matched means not deleted", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeFalse)

			evt := mt.GetStartedEvent()
			convey.So(evt.CommandName, convey.ShouldEqual, "delete")
			deletes, err := evt.Command.Lookup("deletes").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(deletes), convey.ShouldEqual, 1)
			q := deletes[0].Document().Lookup("q").Document()
			convey.So(q.Lookup("_id").StringValue(), convey.ShouldEqual, "s1")
			convey.So(q.Lookup("currentCandidates", "$lte").AsInt64(), convey.ShouldEqual, int64(0))
		})
	})
}

func TestMongoTransitions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("reservation transition is conditional on the source status", func(mt *mtest.T) {
		repo := NewReservationRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		got, err := repo.Transition(ctx, "r1", model.ReservationPending, model.ReservationResponse{
			Status:      model.ReservationAccepted,
			RespondedBy: "int-1",
			RespondedAt: time.Now(),
		})

		convey.Convey("A lost race returns nil, nil", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldBeNil)

			evt := mt.GetStartedEvent()
			convey.So(evt.Command.Lookup("findAndModify").StringValue(), convey.ShouldEqual, "reservations")
			convey.So(evt.Command.Lookup("query", "status").StringValue(), convey.ShouldEqual, "pending")
			convey.So(evt.Command.Lookup("update", "$set", "status").StringValue(), convey.ShouldEqual, "accepted")
		})
	})

	mt.Run("session transition matches any allowed source status", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "x1"},
			{Key: "status", Value: model.SessionCancelled},
		}}))

		got, err := repo.Transition(ctx, "x1",
			[]model.SessionStatus{model.SessionScheduled, model.SessionInProgress},
			model.SessionChange{Status: model.SessionCancelled, CancelledBy: "cand-a", UpdatedAt: time.Now()},
		)

		convey.Convey("The filter lists both statuses", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Status, convey.ShouldEqual, model.SessionCancelled)

			evt := mt.GetStartedEvent()
			in, err := evt.Command.Lookup("query", "status", "$in").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(in), convey.ShouldEqual, 2)
			convey.So(in[0].StringValue(), convey.ShouldEqual, "scheduled")
			convey.So(in[1].StringValue(), convey.ShouldEqual, "in-progress")
			convey.So(evt.Command.Lookup("update", "$set", "cancelledBy").StringValue(), convey.ShouldEqual, "cand-a")
		})
	})

	mt.Run("duplicate keys map to ErrDuplicate", func(mt *mtest.T) {
		repo := NewReservationRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(ctx, &model.Reservation{ID: "r1", CandidateID: "cand-a", SlotID: "s1"})

		convey.Convey("Create reports the sentinel", mt.T, func() {
			convey.So(err, convey.ShouldEqual, ErrDuplicate)
		})
	})
}

func TestMongoLeases(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mt.Run("acquire upserts over an expired lease only", func(mt *mtest.T) {
		repo := NewLeaseRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		ok, err := repo.Acquire(ctx, "slot-window/int-1/d1", "h1", now, now.Add(10*time.Second))

		convey.Convey("The lease is taken", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeTrue)

			evt := mt.GetStartedEvent()
			convey.So(evt.CommandName, convey.ShouldEqual, "update")
			convey.So(evt.Command.Lookup("update").StringValue(), convey.ShouldEqual, "leases")

			updates, err := evt.Command.Lookup("updates").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(updates), convey.ShouldEqual, 1)
			stmt := updates[0].Document()
			convey.So(stmt.Lookup("upsert").Boolean(), convey.ShouldBeTrue)
			convey.So(stmt.Lookup("q", "_id").StringValue(), convey.ShouldEqual, "slot-window/int-1/d1")
			convey.So(stmt.Lookup("q", "expiresAt", "$lte").Time().Equal(now), convey.ShouldBeTrue)
			convey.So(stmt.Lookup("u", "$set", "holder").StringValue(), convey.ShouldEqual, "h1")
		})
	})

	mt.Run("a live lease collides on _id", func(mt *mtest.T) {
		repo := NewLeaseRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		ok, err := repo.Acquire(ctx, "slot-window/int-1/d1", "h2", now, now.Add(10*time.Second))

		convey.Convey("Acquire reports busy without an error", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})

	mt.Run("release only drops the holder's own lease", func(mt *mtest.T) {
		repo := NewLeaseRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := repo.Release(ctx, "slot-window/int-1/d1", "h1")

		convey.Convey("The delete filter names the holder", mt.T, func() {
			convey.So(err, convey.ShouldBeNil)
			evt := mt.GetStartedEvent()
			deletes, err := evt.Command.Lookup("deletes").Array().Values()
			convey.So(err, convey.ShouldBeNil)
			convey.So(deletes[0].Document().Lookup("q", "holder").StringValue(), convey.ShouldEqual, "h1")
		})
	})
}
