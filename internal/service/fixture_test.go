package service

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"intervue/internal/repository/memory"
	"io"
	"sync"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

var (
	admin        = model.Identity{UserID: "admin-1", Role: model.RoleAdmin, Name: "Ada"}
	interviewer  = model.Identity{UserID: "int-1", Role: model.RoleInterviewer, Name: "Ivan"}
	interviewer2 = model.Identity{UserID: "int-2", Role: model.RoleInterviewer, Name: "Iris"}
	candidateA   = model.Identity{UserID: "cand-a", Role: model.RoleCandidate, Name: "Alice"}
	candidateB   = model.Identity{UserID: "cand-b", Role: model.RoleCandidate, Name: "Bob"}
	candidateC   = model.Identity{UserID: "cand-c", Role: model.RoleCandidate, Name: "Cara"}
)

type sentEvent struct {
	SessionID string
	Type      string
	Payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *fakeBroadcaster) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{SessionID: sessionID, Type: msgType, Payload: payload})
}

type fakeRecordings struct{ uploads []string }

func (f *fakeRecordings) UploadRecording(_ context.Context, sessionID string, file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, string(data))
	return "https://cdn.example.com/session-" + sessionID + ".webm", nil
}

type fixture struct {
	ctx          context.Context
	repos        *repository.Store
	days         *DayService
	slots        *SlotService
	reservations *ReservationService
	sessions     *SessionService
	evaluations  *EvaluationService
	broadcaster  *fakeBroadcaster
	recordings   *fakeRecordings
}

func newFixture() *fixture {
	repos := memory.New().Repositories()
	log := zap.NewNop()
	f := &fixture{
		ctx:         context.Background(),
		repos:       repos,
		broadcaster: &fakeBroadcaster{},
		recordings:  &fakeRecordings{},
	}
	f.days = NewDayService(repos.Days, repos.Slots, nil, log)
	f.slots = NewSlotService(repos.Slots, repos.Days, repos.Leases, log)
	f.reservations = NewReservationService(repos.Reservations, repos.Slots, repos.Days, repos.Sessions, nil, log)
	f.sessions = NewSessionService(repos.Sessions, repos.Reservations, repos.Slots, repos.Evaluations, nil, f.recordings, log)
	f.sessions.SetBroadcaster(f.broadcaster)
	f.evaluations = NewEvaluationService(repos.Evaluations, repos.Sessions, log)
	return f
}

func (f *fixture) day(date string) *model.Day {
	day, err := f.days.Create(f.ctx, admin, CreateDayInput{Date: date, Title: "Interview day"})
	convey.So(err, convey.ShouldBeNil)
	return day
}

func (f *fixture) slot(dayID, start, end string, max int) *model.Slot {
	slot, err := f.slots.CreateSlot(f.ctx, interviewer, CreateSlotInput{
		DayID:         dayID,
		StartTime:     start,
		EndTime:       end,
		MaxCandidates: max,
	})
	convey.So(err, convey.ShouldBeNil)
	return slot
}

func (f *fixture) reload(slotID string) *model.Slot {
	slot, err := f.repos.Slots.GetByID(f.ctx, slotID)
	convey.So(err, convey.ShouldBeNil)
	convey.So(slot, convey.ShouldNotBeNil)
	return slot
}

func (f *fixture) reserve(actor model.Identity, slotID string) *model.Reservation {
	res, err := f.reservations.CreateReservation(f.ctx, actor, slotID, "")
	convey.So(err, convey.ShouldBeNil)
	return res
}

// scheduled books and accepts one reservation, returning its session
func (f *fixture) scheduled() (*model.Slot, *AcceptResult) {
	day := f.day("2025-03-10")
	slot := f.slot(day.ID, "10:00", "11:00", 2)
	res := f.reserve(candidateA, slot.ID)
	out, err := f.reservations.AcceptReservation(f.ctx, interviewer, res.ID)
	convey.So(err, convey.ShouldBeNil)
	return slot, out
}

func scores(comm, tech, ps, conf float64) model.EvaluationInput {
	return model.EvaluationInput{Criteria: model.Criteria{
		Communication:  model.CriterionScore{Score: comm},
		Technical:      model.CriterionScore{Score: tech},
		ProblemSolving: model.CriterionScore{Score: ps},
		Confidence:     model.CriterionScore{Score: conf},
	}}
}
