package memory

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"sort"
)

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reservations[res.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.reservations {
		if existing.CandidateID == res.CandidateID && existing.SlotID == res.SlotID {
			return repository.ErrDuplicate
		}
	}
	r.s.reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return cloneReservation(res), nil
}

func (r *reservationRepo) FindByCandidateAndSlot(_ context.Context, candidateID, slotID string) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if res.CandidateID == candidateID && res.SlotID == slotID {
			return cloneReservation(res), nil
		}
	}
	return nil, nil
}

func (r *reservationRepo) DeleteRejected(_ context.Context, candidateID, slotID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, res := range r.s.reservations {
		if res.CandidateID == candidateID && res.SlotID == slotID && res.Status == model.ReservationRejected {
			delete(r.s.reservations, id)
		}
	}
	return nil
}

func (r *reservationRepo) Transition(_ context.Context, id string, from model.ReservationStatus, resp model.ReservationResponse) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok || res.Status != from {
		return nil, nil
	}
	res.Status = resp.Status
	res.UpdatedAt = resp.RespondedAt
	if resp.Status == model.ReservationPending {
		res.RespondedAt = nil
		res.RespondedBy = ""
		res.RejectionReason = ""
	} else {
		at := resp.RespondedAt
		res.RespondedAt = &at
		res.RespondedBy = resp.RespondedBy
		if resp.RejectionReason != "" {
			res.RejectionReason = resp.RejectionReason
		}
	}
	return cloneReservation(res), nil
}

func (r *reservationRepo) List(_ context.Context, f model.ReservationFilter) ([]*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Reservation, 0)
	for _, res := range r.s.reservations {
		if f.CandidateID != "" && res.CandidateID != f.CandidateID {
			continue
		}
		if f.InterviewerID != "" && res.InterviewerID != f.InterviewerID {
			continue
		}
		if f.SlotID != "" && res.SlotID != f.SlotID {
			continue
		}
		if f.Status != "" && res.Status != f.Status {
			continue
		}
		out = append(out, cloneReservation(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *reservationRepo) Delete(_ context.Context, id string, status model.ReservationStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if res, ok := r.s.reservations[id]; !ok || res.Status != status {
		return false, nil
	}
	delete(r.s.reservations, id)
	return true, nil
}
