package memory

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"slices"
	"sort"
	"time"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[session.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.sessions {
		if existing.ReservationID == session.ReservationID {
			return repository.ErrDuplicate
		}
	}
	r.s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(session), nil
}

func (r *sessionRepo) GetByReservationID(_ context.Context, reservationID string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.ReservationID == reservationID {
			return cloneSession(session), nil
		}
	}
	return nil, nil
}

func (r *sessionRepo) Transition(_ context.Context, id string, from []model.SessionStatus, change model.SessionChange) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok || !slices.Contains(from, session.Status) {
		return nil, nil
	}
	change.Apply(session)
	return cloneSession(session), nil
}

func (r *sessionRepo) SetRecording(_ context.Context, id, url string, at time.Time) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	session.RecordingURL = url
	session.UpdatedAt = at
	return cloneSession(session), nil
}

func (r *sessionRepo) ListByParticipant(_ context.Context, userID string) ([]*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Session, 0)
	for _, session := range r.s.sessions {
		if userID == "" || session.HasParticipant(userID) {
			out = append(out, cloneSession(session))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *sessionRepo) Delete(_ context.Context, id string, from []model.SessionStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session, ok := r.s.sessions[id]; !ok || !slices.Contains(from, session.Status) {
		return false, nil
	}
	delete(r.s.sessions, id)
	return true, nil
}
