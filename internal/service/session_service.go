package service

import (
	"context"
	"intervue/internal/apperror"
	"intervue/internal/cache"
	"intervue/internal/metrics"
	"intervue/internal/model"
	"intervue/internal/repository"
	"io"
	"time"

	"go.uber.org/zap"
)

// MsgSessionStatus is pushed to the session room after every transition
const MsgSessionStatus = "session-status"

// RecordingStore persists an uploaded recording and returns its public URL
type RecordingStore interface {
	UploadRecording(ctx context.Context, sessionID string, file io.Reader) (string, error)
}

// SessionService drives scheduled -> in-progress -> completed, with
// cancellation from either non-terminal state. Completing or cancelling a
// session leaves slot capacity untouched.
type SessionService struct {
	sessionRepo     repository.SessionRepo
	reservationRepo repository.ReservationRepo
	slotRepo        repository.SlotRepo
	evaluationRepo  repository.EvaluationRepo
	sessionCache    cache.SessionCache
	recordings      RecordingStore
	broadcaster     Broadcaster
	metrics         *metrics.Metrics
	log             *zap.Logger
	now             func() time.Time
}

// NewSessionService creates a new session service. sessionCache and
// recordings may be nil.
func NewSessionService(
	sessionRepo repository.SessionRepo,
	reservationRepo repository.ReservationRepo,
	slotRepo repository.SlotRepo,
	evaluationRepo repository.EvaluationRepo,
	sessionCache cache.SessionCache,
	recordings RecordingStore,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:     sessionRepo,
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		evaluationRepo:  evaluationRepo,
		sessionCache:    sessionCache,
		recordings:      recordings,
		log:             log,
		now:             time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetMetrics sets the metrics sink
func (s *SessionService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// load reads through the cache
func (s *SessionService) load(ctx context.Context, id string) (*model.Session, error) {
	if s.sessionCache != nil {
		cached, err := s.sessionCache.Get(ctx, id)
		if err != nil {
			s.log.Warn("session cache read failed", zap.String("sessionId", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}

	if s.sessionCache != nil {
		if err := s.sessionCache.Set(ctx, session); err != nil {
			s.log.Warn("session cache write failed", zap.String("sessionId", id), zap.Error(err))
		}
	}
	return session, nil
}

func (s *SessionService) forget(ctx context.Context, id string) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache invalidate failed", zap.String("sessionId", id), zap.Error(err))
	}
}

func (s *SessionService) Get(ctx context.Context, actor model.Identity, id string) (*model.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(actor, session.CandidateID, session.InterviewerID); err != nil {
		return nil, err
	}
	return session, nil
}

// AuthorizeJoin admits the session's candidate, its interviewer and admins
// to its realtime room (implements ws.JoinAuthorizer)
func (s *SessionService) AuthorizeJoin(ctx context.Context, actor model.Identity, sessionID string) error {
	_, err := s.Get(ctx, actor, sessionID)
	return err
}

// List returns the actor's own sessions, every session for admins
func (s *SessionService) List(ctx context.Context, actor model.Identity) ([]*model.Session, error) {
	userID := actor.UserID
	if actor.IsAdmin() {
		userID = ""
	}
	list, err := s.sessionRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal("list sessions", err)
	}
	return list, nil
}

// Start moves a scheduled session to in-progress
func (s *SessionService) Start(ctx context.Context, actor model.Identity, id string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireOwner(actor, session.InterviewerID); err != nil {
		return nil, err
	}
	if session.Status != model.SessionScheduled {
		return nil, apperror.NewInvalidState("only a scheduled session can be started")
	}

	now := s.now()
	return s.transition(ctx, actor, id, []model.SessionStatus{model.SessionScheduled}, model.SessionChange{
		Status:          model.SessionInProgress,
		ActualStartTime: &now,
		UpdatedAt:       now,
	})
}

// Complete moves an in-progress session to completed
func (s *SessionService) Complete(ctx context.Context, actor model.Identity, id, notes string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireOwner(actor, session.InterviewerID); err != nil {
		return nil, err
	}
	if session.Status != model.SessionInProgress {
		return nil, apperror.NewInvalidState("only an in-progress session can be completed")
	}

	now := s.now()
	change := model.SessionChange{
		Status:        model.SessionCompleted,
		ActualEndTime: &now,
		UpdatedAt:     now,
	}
	if notes != "" {
		change.Notes = &notes
	}
	return s.transition(ctx, actor, id, []model.SessionStatus{model.SessionInProgress}, change)
}

// Cancel moves a scheduled or in-progress session to cancelled
func (s *SessionService) Cancel(ctx context.Context, actor model.Identity, id, reason string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireParticipant(actor, session.CandidateID, session.InterviewerID); err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, apperror.NewInvalidState("a " + string(session.Status) + " session cannot be cancelled")
	}

	return s.transition(ctx, actor, id, []model.SessionStatus{model.SessionScheduled, model.SessionInProgress}, model.SessionChange{
		Status:          model.SessionCancelled,
		CancelledReason: reason,
		CancelledBy:     actor.UserID,
		UpdatedAt:       s.now(),
	})
}

func (s *SessionService) transition(ctx context.Context, actor model.Identity, id string, from []model.SessionStatus, change model.SessionChange) (*model.Session, error) {
	updated, err := s.sessionRepo.Transition(ctx, id, from, change)
	if err != nil {
		return nil, apperror.NewInternal("update session", err)
	}
	s.forget(ctx, id)
	if updated == nil {
		current, err := s.sessionRepo.GetByID(ctx, id)
		if err != nil {
			return nil, apperror.NewInternal("load session", err)
		}
		if current == nil {
			return nil, apperror.NewNotFound("session")
		}
		return nil, apperror.NewInvalidState("session is already " + string(current.Status))
	}

	s.metrics.SessionTransition(string(updated.Status))
	s.log.Info("session transitioned",
		zap.String("sessionId", id),
		zap.String("status", string(updated.Status)),
		zap.String("by", actor.UserID),
	)
	s.announce(updated, actor)
	return updated, nil
}

func (s *SessionService) announce(session *model.Session, actor model.Identity) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToSession(session.ID, MsgSessionStatus, model.SessionStatusEvent{
		SessionID: session.ID,
		Status:    session.Status,
		ChangedBy: actor.UserID,
	})
}

// UploadRecording stores a recording for the session regardless of its status
func (s *SessionService) UploadRecording(ctx context.Context, actor model.Identity, id string, file io.Reader) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireOwner(actor, session.InterviewerID); err != nil {
		return nil, err
	}
	if s.recordings == nil {
		return nil, apperror.NewInvalidState("recording storage is not configured")
	}

	url, err := s.recordings.UploadRecording(ctx, id, file)
	if err != nil {
		return nil, apperror.NewInternal("upload recording", err)
	}

	updated, err := s.sessionRepo.SetRecording(ctx, id, url, s.now())
	if err != nil {
		return nil, apperror.NewInternal("save recording url", err)
	}
	s.forget(ctx, id)
	if updated == nil {
		return nil, apperror.NewNotFound("session")
	}

	s.log.Info("recording uploaded", zap.String("sessionId", id), zap.String("url", url))
	return updated, nil
}

// Delete removes a session with its evaluation and reservation, and returns
// the reservation's capacity unit to the slot
func (s *SessionService) Delete(ctx context.Context, actor model.Identity, id string) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.NewInternal("load session", err)
	}
	if session == nil {
		return apperror.NewNotFound("session")
	}

	ok, err := s.sessionRepo.Delete(ctx, id, model.AllSessionStatuses)
	if err != nil {
		return apperror.NewInternal("delete session", err)
	}
	if !ok {
		return apperror.NewNotFound("session")
	}
	s.forget(ctx, id)

	if err := s.evaluationRepo.DeleteBySessionID(ctx, id); err != nil {
		s.log.Error("failed to delete evaluation of deleted session", zap.String("sessionId", id), zap.Error(err))
	}

	removed, err := s.reservationRepo.Delete(ctx, session.ReservationID, model.ReservationAccepted)
	if err != nil {
		s.log.Error("failed to delete reservation of deleted session", zap.String("reservationId", session.ReservationID), zap.Error(err))
	} else if removed {
		if slot, err := s.slotRepo.Release(ctx, session.SlotID); err != nil {
			s.log.Error("failed to release slot capacity", zap.String("slotId", session.SlotID), zap.Error(err))
		} else if slot == nil {
			s.log.Warn("slot capacity already empty or slot gone", zap.String("slotId", session.SlotID))
		}
	}

	s.metrics.SessionTransition("deleted")
	s.log.Info("session deleted", zap.String("sessionId", id), zap.String("by", actor.UserID))
	return nil
}
