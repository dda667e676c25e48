// Package repository persists days, slots, reservations, sessions and
// evaluations. Get methods return (nil, nil) when the document does not exist
// and conditional writes return (nil, nil) when their guard does not match,
// leaving the caller to reload and decide why.
package repository

import (
	"context"
	"errors"
	"intervue/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate key")

type DayRepo interface {
	Create(ctx context.Context, day *model.Day) error
	GetByID(ctx context.Context, id string) (*model.Day, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Day, error)
	Update(ctx context.Context, day *model.Day) error
	Delete(ctx context.Context, id string) (bool, error)
}

type SlotRepo interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	ListByDay(ctx context.Context, dayID string) ([]*model.Slot, error)
	ListByInterviewerAndDay(ctx context.Context, interviewerID, dayID string) ([]*model.Slot, error)
	CountByDay(ctx context.Context, dayID string) (int64, error)
	// Reserve claims one unit of capacity if current < max
	Reserve(ctx context.Context, id string) (*model.Slot, error)
	// Release returns one unit of capacity if current > 0
	Release(ctx context.Context, id string) (*model.Slot, error)
	// UpdateDetails rewrites the owner fields if current <= patch max
	UpdateDetails(ctx context.Context, id string, details SlotDetails) (*model.Slot, error)
	// DeleteUnreserved removes the slot if no reservation holds capacity on it
	DeleteUnreserved(ctx context.Context, id string) (bool, error)
}

// SlotDetails is the full set of owner-editable slot fields
type SlotDetails struct {
	StartTime     string
	EndTime       string
	MaxCandidates int
	Notes         string
	UpdatedAt     time.Time
}

type ReservationRepo interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByCandidateAndSlot(ctx context.Context, candidateID, slotID string) (*model.Reservation, error)
	DeleteRejected(ctx context.Context, candidateID, slotID string) error
	// Transition applies resp if the reservation is still in status from
	Transition(ctx context.Context, id string, from model.ReservationStatus, resp model.ReservationResponse) (*model.Reservation, error)
	List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error)
	// Delete removes the reservation if it is still in status
	Delete(ctx context.Context, id string, status model.ReservationStatus) (bool, error)
}

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByReservationID(ctx context.Context, reservationID string) (*model.Session, error)
	// Transition applies change if the session status is one of from
	Transition(ctx context.Context, id string, from []model.SessionStatus, change model.SessionChange) (*model.Session, error)
	SetRecording(ctx context.Context, id, url string, at time.Time) (*model.Session, error)
	// ListByParticipant returns sessions the user takes part in, all sessions for ""
	ListByParticipant(ctx context.Context, userID string) ([]*model.Session, error)
	// Delete removes the session if its status is one of from
	Delete(ctx context.Context, id string, from []model.SessionStatus) (bool, error)
}

type EvaluationRepo interface {
	Create(ctx context.Context, eval *model.Evaluation) error
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Evaluation, error)
	UpdateScores(ctx context.Context, id string, criteria model.Criteria, overall float64, notes string, at time.Time) (*model.Evaluation, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

// LeaseRepo hands out short exclusive leases on a key
type LeaseRepo interface {
	// Acquire takes key for holder until the given time unless another
	// holder's lease is still live at now
	Acquire(ctx context.Context, key, holder string, now, until time.Time) (bool, error)
	// Release drops the lease if holder still owns it
	Release(ctx context.Context, key, holder string) error
}

// Store bundles one implementation of every repository
type Store struct {
	Days         DayRepo
	Slots        SlotRepo
	Reservations ReservationRepo
	Sessions     SessionRepo
	Evaluations  EvaluationRepo
	Leases       LeaseRepo
}

// NewMongoStore builds every repository over db
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Days:         NewDayRepo(db),
		Slots:        NewSlotRepo(db),
		Reservations: NewReservationRepo(db),
		Sessions:     NewSessionRepo(db),
		Evaluations:  NewEvaluationRepo(db),
		Leases:       NewLeaseRepo(db),
	}
}

func translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)
	out := make([]*T, 0)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func decodeResult[T any](res *mongo.SingleResult) (*T, error) {
	var out T
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
