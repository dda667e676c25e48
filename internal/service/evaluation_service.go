package service

import (
	"context"
	"errors"
	"intervue/internal/apperror"
	"intervue/internal/metrics"
	"intervue/internal/model"
	"intervue/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvaluationService records the one evaluation a completed session may have
type EvaluationService struct {
	evaluationRepo repository.EvaluationRepo
	sessionRepo    repository.SessionRepo
	metrics        *metrics.Metrics
	log            *zap.Logger
	now            func() time.Time
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(evaluationRepo repository.EvaluationRepo, sessionRepo repository.SessionRepo, log *zap.Logger) *EvaluationService {
	return &EvaluationService{
		evaluationRepo: evaluationRepo,
		sessionRepo:    sessionRepo,
		log:            log,
		now:            time.Now,
	}
}

// SetMetrics sets the metrics sink
func (s *EvaluationService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *EvaluationService) Create(ctx context.Context, actor model.Identity, sessionID string, in model.EvaluationInput) (*model.Evaluation, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireOwner(actor, session.InterviewerID); err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, apperror.NewInvalidState("only a completed session can be evaluated")
	}

	existing, err := s.evaluationRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NewInternal("load evaluation", err)
	}
	if existing != nil {
		return nil, apperror.NewConflict("session already has an evaluation")
	}

	overall, err := score(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	eval := &model.Evaluation{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		CandidateID:   session.CandidateID,
		InterviewerID: session.InterviewerID,
		Criteria:      in.Criteria,
		OverallScore:  overall,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.evaluationRepo.Create(ctx, eval); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("session already has an evaluation")
		}
		return nil, apperror.NewInternal("create evaluation", err)
	}

	s.metrics.Evaluation("created")
	s.log.Info("evaluation created",
		zap.String("evaluationId", eval.ID),
		zap.String("sessionId", sessionID),
		zap.Float64("overallScore", overall),
	)
	return eval, nil
}

// Update rewrites the scores. Only the interviewer who wrote the evaluation may edit it.
func (s *EvaluationService) Update(ctx context.Context, actor model.Identity, id string, in model.EvaluationInput) (*model.Evaluation, error) {
	eval, err := s.evaluationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load evaluation", err)
	}
	if eval == nil {
		return nil, apperror.NewNotFound("evaluation")
	}
	if actor.UserID != eval.InterviewerID {
		return nil, apperror.NewForbidden("only the evaluating interviewer may update it")
	}

	overall, err := score(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.evaluationRepo.UpdateScores(ctx, id, in.Criteria, overall, in.Notes, s.now())
	if err != nil {
		return nil, apperror.NewInternal("update evaluation", err)
	}
	if updated == nil {
		return nil, apperror.NewNotFound("evaluation")
	}

	s.metrics.Evaluation("updated")
	s.log.Info("evaluation updated", zap.String("evaluationId", id), zap.Float64("overallScore", overall))
	return updated, nil
}

func (s *EvaluationService) GetBySession(ctx context.Context, actor model.Identity, sessionID string) (*model.Evaluation, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NewInternal("load session", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("session")
	}
	if err := requireParticipant(actor, session.CandidateID, session.InterviewerID); err != nil {
		return nil, err
	}

	eval, err := s.evaluationRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NewInternal("load evaluation", err)
	}
	if eval == nil {
		return nil, apperror.NewNotFound("evaluation")
	}
	return eval, nil
}

func score(in model.EvaluationInput) (float64, error) {
	if err := in.Criteria.Validate(); err != nil {
		return 0, apperror.NewValidation(err.Error())
	}
	overall, err := in.Score()
	if err != nil {
		return 0, apperror.NewValidation(err.Error())
	}
	return overall, nil
}
