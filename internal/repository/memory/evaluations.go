package memory

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"time"
)

type evaluationRepo struct{ s *Store }

func (r *evaluationRepo) Create(_ context.Context, eval *model.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.evaluations[eval.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.evaluations {
		if existing.SessionID == eval.SessionID {
			return repository.ErrDuplicate
		}
	}
	r.s.evaluations[eval.ID] = cloneEvaluation(eval)
	return nil
}

func (r *evaluationRepo) GetByID(_ context.Context, id string) (*model.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eval, ok := r.s.evaluations[id]
	if !ok {
		return nil, nil
	}
	return cloneEvaluation(eval), nil
}

func (r *evaluationRepo) GetBySessionID(_ context.Context, sessionID string) (*model.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, eval := range r.s.evaluations {
		if eval.SessionID == sessionID {
			return cloneEvaluation(eval), nil
		}
	}
	return nil, nil
}

func (r *evaluationRepo) UpdateScores(_ context.Context, id string, criteria model.Criteria, overall float64, notes string, at time.Time) (*model.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eval, ok := r.s.evaluations[id]
	if !ok {
		return nil, nil
	}
	eval.Criteria = criteria
	eval.OverallScore = overall
	eval.Notes = notes
	eval.UpdatedAt = at
	return cloneEvaluation(eval), nil
}

func (r *evaluationRepo) DeleteBySessionID(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, eval := range r.s.evaluations {
		if eval.SessionID == sessionID {
			delete(r.s.evaluations, id)
		}
	}
	return nil
}
