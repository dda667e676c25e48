package memory_test

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"intervue/internal/repository/memory"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestSlotCapacity(t *testing.T) {
	convey.Convey("Given a slot with room for two", t, func() {
		ctx := context.Background()
		repos := memory.New().Repositories()
		slot := &model.Slot{ID: "s1", DayID: "d1", MaxCandidates: 2, Status: model.SlotAvailable}
		convey.So(repos.Slots.Create(ctx, slot), convey.ShouldBeNil)

		convey.Convey("Concurrent reserves never exceed the maximum", func() {
			var wg sync.WaitGroup
			var won int32
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if s, _ := repos.Slots.Reserve(ctx, "s1"); s != nil {
						atomic.AddInt32(&won, 1)
					}
				}()
			}
			wg.Wait()

			convey.So(int(won), convey.ShouldEqual, 2)
			got, _ := repos.Slots.GetByID(ctx, "s1")
			convey.So(got.CurrentCandidates, convey.ShouldEqual, 2)
			convey.So(got.Status, convey.ShouldEqual, model.SlotBooked)
		})

		convey.Convey("Release never goes below zero", func() {
			s, err := repos.Slots.Release(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(s, convey.ShouldBeNil)
		})

		convey.Convey("Details cannot shrink capacity below the claimed count", func() {
			repos.Slots.Reserve(ctx, "s1")
			repos.Slots.Reserve(ctx, "s1")
			s, _ := repos.Slots.UpdateDetails(ctx, "s1", repository.SlotDetails{MaxCandidates: 1})
			convey.So(s, convey.ShouldBeNil)

			s, _ = repos.Slots.UpdateDetails(ctx, "s1", repository.SlotDetails{MaxCandidates: 3})
			convey.So(s.Status, convey.ShouldEqual, model.SlotPending)
		})

		convey.Convey("A slot holding capacity is not deleted", func() {
			repos.Slots.Reserve(ctx, "s1")
			ok, _ := repos.Slots.DeleteUnreserved(ctx, "s1")
			convey.So(ok, convey.ShouldBeFalse)

			repos.Slots.Release(ctx, "s1")
			ok, _ = repos.Slots.DeleteUnreserved(ctx, "s1")
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Returned documents are copies", func() {
			got, _ := repos.Slots.GetByID(ctx, "s1")
			got.CurrentCandidates = 99
			again, _ := repos.Slots.GetByID(ctx, "s1")
			convey.So(again.CurrentCandidates, convey.ShouldEqual, 0)
		})
	})
}

func TestUniqueConstraints(t *testing.T) {
	convey.Convey("Given the unique keys of the booking collections", t, func() {
		ctx := context.Background()
		repos := memory.New().Repositories()

		convey.So(repos.Reservations.Create(ctx, &model.Reservation{ID: "r1", CandidateID: "c", SlotID: "s"}), convey.ShouldBeNil)
		convey.So(repos.Reservations.Create(ctx, &model.Reservation{ID: "r2", CandidateID: "c", SlotID: "s"}), convey.ShouldEqual, repository.ErrDuplicate)

		convey.So(repos.Sessions.Create(ctx, &model.Session{ID: "x1", ReservationID: "r1"}), convey.ShouldBeNil)
		convey.So(repos.Sessions.Create(ctx, &model.Session{ID: "x2", ReservationID: "r1"}), convey.ShouldEqual, repository.ErrDuplicate)

		convey.So(repos.Evaluations.Create(ctx, &model.Evaluation{ID: "e1", SessionID: "x1"}), convey.ShouldBeNil)
		convey.So(repos.Evaluations.Create(ctx, &model.Evaluation{ID: "e2", SessionID: "x1"}), convey.ShouldEqual, repository.ErrDuplicate)

		convey.Convey("A conditional transition loses when the status moved", func() {
			resp := model.ReservationResponse{Status: model.ReservationAccepted, RespondedBy: "i"}
			won, _ := repos.Reservations.Transition(ctx, "r1", model.ReservationPending, resp)
			convey.So(won, convey.ShouldBeNil)

			repos.Reservations.Create(ctx, &model.Reservation{ID: "r3", CandidateID: "c2", SlotID: "s", Status: model.ReservationPending})
			won, _ = repos.Reservations.Transition(ctx, "r3", model.ReservationPending, resp)
			convey.So(won.Status, convey.ShouldEqual, model.ReservationAccepted)
			lost, _ := repos.Reservations.Transition(ctx, "r3", model.ReservationPending, resp)
			convey.So(lost, convey.ShouldBeNil)
		})
	})
}

func TestLeases(t *testing.T) {
	convey.Convey("Given a lease held until ten past nine", t, func() {
		ctx := context.Background()
		repos := memory.New().Repositories()
		nine := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		until := nine.Add(10 * time.Minute)

		ok, err := repos.Leases.Acquire(ctx, "k", "h1", nine, until)
		convey.So(err, convey.ShouldBeNil)
		convey.So(ok, convey.ShouldBeTrue)

		convey.Convey("Another holder is refused while it is live", func() {
			ok, _ := repos.Leases.Acquire(ctx, "k", "h2", nine.Add(time.Minute), until)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Other keys are independent", func() {
			ok, _ := repos.Leases.Acquire(ctx, "other", "h2", nine, until)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("It can be taken over once expired", func() {
			ok, _ := repos.Leases.Acquire(ctx, "k", "h2", until, until.Add(time.Minute))
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Only the holder can release it", func() {
			convey.So(repos.Leases.Release(ctx, "k", "h2"), convey.ShouldBeNil)
			ok, _ := repos.Leases.Acquire(ctx, "k", "h2", nine, until)
			convey.So(ok, convey.ShouldBeFalse)

			convey.So(repos.Leases.Release(ctx, "k", "h1"), convey.ShouldBeNil)
			ok, _ = repos.Leases.Acquire(ctx, "k", "h2", nine, until)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})
}
