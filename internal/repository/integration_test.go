//go:build integration

package repository

import (
	"context"
	"intervue/internal/model"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run with: MONGO_URI=mongodb://localhost:27017 go test -tags integration ./internal/repository/
func integrationDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}
	db := client.Database("intervue_test_" + uuid.NewString()[:8])
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	t.Cleanup(func() {
		db.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	return db
}

func TestMongoCapacityRace(t *testing.T) {
	db := integrationDB(t)
	store := NewMongoStore(db)
	ctx := context.Background()

	convey.Convey("Given a slot with one place", t, func() {
		id := uuid.NewString()
		now := time.Now().UTC()
		err := store.Slots.Create(ctx, &model.Slot{
			ID: id, DayID: "d1", InterviewerID: "int-1",
			StartTime: "10:00", EndTime: "11:00",
			MaxCandidates: 1, Status: model.SlotAvailable,
			CreatedAt: now, UpdatedAt: now,
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Concurrent reserves claim it exactly once", func() {
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				won int
			)
			for i := 0; i < 30; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					slot, err := store.Slots.Reserve(ctx, id)
					if err == nil && slot != nil {
						mu.Lock()
						won++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			convey.So(won, convey.ShouldEqual, 1)
			slot, err := store.Slots.GetByID(ctx, id)
			convey.So(err, convey.ShouldBeNil)
			convey.So(slot.CurrentCandidates, convey.ShouldEqual, 1)
			convey.So(slot.Status, convey.ShouldEqual, model.SlotBooked)

			convey.Convey("Releasing twice stops at zero", func() {
				got, err := store.Slots.Release(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Status, convey.ShouldEqual, model.SlotAvailable)

				got, err = store.Slots.Release(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldBeNil)
			})

			convey.Convey("The slot cannot be deleted while held", func() {
				ok, err := store.Slots.DeleteUnreserved(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("Detail edits store field-path-looking text verbatim", func() {
			got, err := store.Slots.UpdateDetails(ctx, id, SlotDetails{
				StartTime: "10:00", EndTime: "11:30", MaxCandidates: 2, Notes: "$status", UpdatedAt: now,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Notes, convey.ShouldEqual, "$status")
			convey.So(got.EndTime, convey.ShouldEqual, "11:30")
			convey.So(got.Status, convey.ShouldEqual, model.SlotAvailable)
		})
	})
}

func TestMongoSessionMonotonic(t *testing.T) {
	db := integrationDB(t)
	store := NewMongoStore(db)
	ctx := context.Background()

	convey.Convey("Given a scheduled session", t, func() {
		id := uuid.NewString()
		now := time.Now().UTC()
		convey.So(store.Sessions.Create(ctx, &model.Session{
			ID: id, ReservationID: uuid.NewString(), Status: model.SessionScheduled,
			CreatedAt: now, UpdatedAt: now,
		}), convey.ShouldBeNil)

		convey.Convey("Racing start and cancel lets exactly one through", func() {
			var wg sync.WaitGroup
			results := make([]*model.Session, 2)
			changes := []model.SessionChange{
				{Status: model.SessionInProgress, ActualStartTime: &now, UpdatedAt: now},
				{Status: model.SessionCancelled, CancelledBy: "cand-a", UpdatedAt: now},
			}
			for i := range changes {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = store.Sessions.Transition(ctx, id, []model.SessionStatus{model.SessionScheduled}, changes[i])
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, r := range results {
				if r != nil {
					winners++
				}
			}
			convey.So(winners, convey.ShouldEqual, 1)
		})
	})
}

func TestMongoLeaseRace(t *testing.T) {
	db := integrationDB(t)
	store := NewMongoStore(db)
	ctx := context.Background()

	convey.Convey("Racing holders on one key get a single lease", t, func() {
		key := "slot-window/int-1/" + uuid.NewString()
		now := time.Now().UTC()

		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Leases.Acquire(ctx, key, uuid.NewString(), now, now.Add(time.Minute))
				if err == nil && ok {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		convey.So(winners, convey.ShouldEqual, 1)

		convey.Convey("and an expired lease is taken over", func() {
			later := now.Add(time.Minute)
			ok, err := store.Leases.Acquire(ctx, key, "late", later, later.Add(time.Minute))
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})
}
