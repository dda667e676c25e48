package service

import (
	"context"
	"errors"
	"intervue/internal/apperror"
	"intervue/internal/cache"
	"intervue/internal/metrics"
	"intervue/internal/model"
	"intervue/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService moves reservations through pending -> accepted|rejected
// and keeps slot capacity in step. Every capacity change is a conditional
// write in the store; a failed follow-up write is compensated, never retried.
type ReservationService struct {
	reservationRepo repository.ReservationRepo
	slotRepo        repository.SlotRepo
	dayRepo         repository.DayRepo
	sessionRepo     repository.SessionRepo
	sessionCache    cache.SessionCache
	metrics         *metrics.Metrics
	log             *zap.Logger
	now             func() time.Time
}

// NewReservationService creates a new reservation service. sessionCache may be nil.
func NewReservationService(
	reservationRepo repository.ReservationRepo,
	slotRepo repository.SlotRepo,
	dayRepo repository.DayRepo,
	sessionRepo repository.SessionRepo,
	sessionCache cache.SessionCache,
	log *zap.Logger,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		dayRepo:         dayRepo,
		sessionRepo:     sessionRepo,
		sessionCache:    sessionCache,
		log:             log,
		now:             time.Now,
	}
}

// SetMetrics sets the metrics sink
func (s *ReservationService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// AcceptResult is the accepted reservation and the session created from it
type AcceptResult struct {
	Reservation *model.Reservation `json:"reservation"`
	Session     *model.Session     `json:"session"`
}

// CreateReservation books one unit of the slot for the calling candidate
func (s *ReservationService) CreateReservation(ctx context.Context, actor model.Identity, slotID, note string) (*model.Reservation, error) {
	if err := requireRole(actor, model.RoleCandidate); err != nil {
		return nil, err
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, apperror.NewInternal("load slot", err)
	}
	if slot == nil {
		return nil, apperror.NewNotFound("slot")
	}
	if slot.IsFull() {
		s.metrics.Reservation("slot_full")
		return nil, apperror.NewConflict("slot is full")
	}

	existing, err := s.reservationRepo.FindByCandidateAndSlot(ctx, actor.UserID, slotID)
	if err != nil {
		return nil, apperror.NewInternal("load reservation", err)
	}
	if existing != nil {
		if existing.Active() {
			return nil, apperror.NewConflict("you already have a reservation for this slot")
		}
		// a rejected candidate may ask again
		if err := s.reservationRepo.DeleteRejected(ctx, actor.UserID, slotID); err != nil {
			return nil, apperror.NewInternal("purge rejected reservation", err)
		}
	}

	claimed, err := s.slotRepo.Reserve(ctx, slotID)
	if err != nil {
		return nil, apperror.NewInternal("reserve slot", err)
	}
	if claimed == nil {
		if again, _ := s.slotRepo.GetByID(ctx, slotID); again == nil {
			return nil, apperror.NewNotFound("slot")
		}
		s.metrics.Reservation("slot_full")
		return nil, apperror.NewConflict("slot is full")
	}

	now := s.now()
	res := &model.Reservation{
		ID:            uuid.NewString(),
		CandidateID:   actor.UserID,
		InterviewerID: claimed.InterviewerID,
		SlotID:        slotID,
		Status:        model.ReservationPending,
		Note:          note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		s.release(ctx, slotID, "reservation insert failed")
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("you already have a reservation for this slot")
		}
		return nil, apperror.NewInternal("create reservation", err)
	}

	s.metrics.Reservation("created")
	s.log.Info("reservation created",
		zap.String("reservationId", res.ID),
		zap.String("slotId", slotID),
		zap.String("candidateId", actor.UserID),
		zap.Int("currentCandidates", claimed.CurrentCandidates),
		zap.String("slotStatus", string(claimed.Status)),
	)
	return res, nil
}

// AcceptReservation accepts a pending reservation and creates its session
func (s *ReservationService) AcceptReservation(ctx context.Context, actor model.Identity, id string) (*AcceptResult, error) {
	res, slot, err := s.loadForResponse(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	day, err := s.dayRepo.GetByID(ctx, slot.DayID)
	if err != nil {
		return nil, apperror.NewInternal("load day", err)
	}
	if day == nil {
		return nil, apperror.NewNotFound("day")
	}

	now := s.now()
	accepted, err := s.reservationRepo.Transition(ctx, id, model.ReservationPending, model.ReservationResponse{
		Status:      model.ReservationAccepted,
		RespondedBy: actor.UserID,
		RespondedAt: now,
	})
	if err != nil {
		return nil, apperror.NewInternal("accept reservation", err)
	}
	if accepted == nil {
		return nil, s.lostRace(ctx, id)
	}

	session := &model.Session{
		ID:            uuid.NewString(),
		CandidateID:   res.CandidateID,
		InterviewerID: res.InterviewerID,
		ReservationID: res.ID,
		SlotID:        slot.ID,
		Date:          day.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		Status:        model.SessionScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if _, rerr := s.reservationRepo.Transition(ctx, id, model.ReservationAccepted, model.ReservationResponse{
			Status:      model.ReservationPending,
			RespondedAt: s.now(),
		}); rerr != nil {
			s.log.Error("failed to revert accepted reservation", zap.String("reservationId", id), zap.Error(rerr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("a session already exists for this reservation")
		}
		return nil, apperror.NewInternal("create session", err)
	}

	s.metrics.Reservation("accepted")
	s.log.Info("reservation accepted",
		zap.String("reservationId", id),
		zap.String("sessionId", session.ID),
		zap.String("by", actor.UserID),
	)
	return &AcceptResult{Reservation: accepted, Session: session}, nil
}

// RejectReservation rejects a pending reservation and frees its capacity unit
func (s *ReservationService) RejectReservation(ctx context.Context, actor model.Identity, id, reason string) (*model.Reservation, error) {
	if _, _, err := s.loadForResponse(ctx, actor, id); err != nil {
		return nil, err
	}

	rejected, err := s.reservationRepo.Transition(ctx, id, model.ReservationPending, model.ReservationResponse{
		Status:          model.ReservationRejected,
		RejectionReason: reason,
		RespondedBy:     actor.UserID,
		RespondedAt:     s.now(),
	})
	if err != nil {
		return nil, apperror.NewInternal("reject reservation", err)
	}
	if rejected == nil {
		return nil, s.lostRace(ctx, id)
	}

	s.release(ctx, rejected.SlotID, "reservation rejected")

	s.metrics.Reservation("rejected")
	s.log.Info("reservation rejected", zap.String("reservationId", id), zap.String("by", actor.UserID))
	return rejected, nil
}

// loadForResponse runs the guards shared by accept and reject
func (s *ReservationService) loadForResponse(ctx context.Context, actor model.Identity, id string) (*model.Reservation, *model.Slot, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.NewInternal("load reservation", err)
	}
	if res == nil {
		return nil, nil, apperror.NewNotFound("reservation")
	}

	slot, err := s.slotRepo.GetByID(ctx, res.SlotID)
	if err != nil {
		return nil, nil, apperror.NewInternal("load slot", err)
	}
	if slot == nil {
		return nil, nil, apperror.NewNotFound("slot")
	}
	if err := requireOwner(actor, slot.InterviewerID); err != nil {
		return nil, nil, err
	}
	if res.Status != model.ReservationPending {
		return nil, nil, apperror.NewInvalidState("reservation is already " + string(res.Status))
	}
	return res, slot, nil
}

// lostRace explains a conditional transition that matched nothing
func (s *ReservationService) lostRace(ctx context.Context, id string) error {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.NewInternal("load reservation", err)
	}
	if res == nil {
		return apperror.NewNotFound("reservation")
	}
	return apperror.NewInvalidState("reservation is already " + string(res.Status))
}

func (s *ReservationService) release(ctx context.Context, slotID, reason string) {
	slot, err := s.slotRepo.Release(ctx, slotID)
	if err != nil {
		s.log.Error("failed to release slot capacity", zap.String("slotId", slotID), zap.String("reason", reason), zap.Error(err))
		return
	}
	if slot == nil {
		s.log.Warn("slot capacity already empty or slot gone", zap.String("slotId", slotID), zap.String("reason", reason))
	}
}

func (s *ReservationService) GetReservation(ctx context.Context, actor model.Identity, id string) (*model.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load reservation", err)
	}
	if res == nil {
		return nil, apperror.NewNotFound("reservation")
	}
	if err := requireParticipant(actor, res.CandidateID, res.InterviewerID); err != nil {
		return nil, err
	}
	return res, nil
}

// ListReservations scopes the filter to what the actor may see
func (s *ReservationService) ListReservations(ctx context.Context, actor model.Identity, filter model.ReservationFilter) ([]*model.Reservation, error) {
	switch actor.Role {
	case model.RoleCandidate:
		filter.CandidateID = actor.UserID
	case model.RoleInterviewer:
		filter.InterviewerID = actor.UserID
	}
	list, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.NewInternal("list reservations", err)
	}
	return list, nil
}

// DeleteReservation withdraws a reservation. Capacity held by a pending or
// accepted reservation is returned; an accepted reservation takes its session
// with it unless the interview has already started.
func (s *ReservationService) DeleteReservation(ctx context.Context, actor model.Identity, id string) error {
	res, err := s.GetReservation(ctx, actor, id)
	if err != nil {
		return err
	}

	if res.Status == model.ReservationAccepted {
		session, err := s.sessionRepo.GetByReservationID(ctx, id)
		if err != nil {
			return apperror.NewInternal("load session", err)
		}
		if session != nil {
			ok, err := s.sessionRepo.Delete(ctx, session.ID, []model.SessionStatus{model.SessionScheduled, model.SessionCancelled})
			if err != nil {
				return apperror.NewInternal("delete session", err)
			}
			if !ok {
				return apperror.NewInvalidState("the interview has already started")
			}
			s.forgetSession(ctx, session.ID)
		}
	}

	ok, err := s.reservationRepo.Delete(ctx, id, res.Status)
	if err != nil {
		return apperror.NewInternal("delete reservation", err)
	}
	if !ok {
		return s.lostRace(ctx, id)
	}
	if res.Active() {
		s.release(ctx, res.SlotID, "reservation deleted")
	}

	s.metrics.Reservation("deleted")
	s.log.Info("reservation deleted",
		zap.String("reservationId", id),
		zap.String("status", string(res.Status)),
		zap.String("by", actor.UserID),
	)
	return nil
}

func (s *ReservationService) forgetSession(ctx context.Context, id string) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache invalidate failed", zap.String("sessionId", id), zap.Error(err))
	}
}
