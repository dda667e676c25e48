package memory

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"sort"
	"time"
)

type slotRepo struct{ s *Store }

func (r *slotRepo) Create(_ context.Context, slot *model.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slots[slot.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.slots[slot.ID] = cloneSlot(slot)
	return nil
}

func (r *slotRepo) GetByID(_ context.Context, id string) (*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	return cloneSlot(sl), nil
}

func (r *slotRepo) ListByDay(_ context.Context, dayID string) ([]*model.Slot, error) {
	return r.filter(func(sl *model.Slot) bool { return sl.DayID == dayID }), nil
}

func (r *slotRepo) ListByInterviewerAndDay(_ context.Context, interviewerID, dayID string) ([]*model.Slot, error) {
	return r.filter(func(sl *model.Slot) bool {
		return sl.DayID == dayID && sl.InterviewerID == interviewerID
	}), nil
}

func (r *slotRepo) filter(match func(*model.Slot) bool) []*model.Slot {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Slot, 0)
	for _, sl := range r.s.slots {
		if match(sl) {
			out = append(out, cloneSlot(sl))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

func (r *slotRepo) CountByDay(_ context.Context, dayID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sl := range r.s.slots {
		if sl.DayID == dayID {
			n++
		}
	}
	return n, nil
}

func (r *slotRepo) Reserve(_ context.Context, id string) (*model.Slot, error) {
	return r.adjust(id, 1, func(sl *model.Slot) bool { return sl.CurrentCandidates < sl.MaxCandidates })
}

func (r *slotRepo) Release(_ context.Context, id string) (*model.Slot, error) {
	return r.adjust(id, -1, func(sl *model.Slot) bool { return sl.CurrentCandidates > 0 })
}

func (r *slotRepo) adjust(id string, delta int, guard func(*model.Slot) bool) (*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok || !guard(sl) {
		return nil, nil
	}
	sl.CurrentCandidates += delta
	sl.Status = model.SlotStatusFor(sl.CurrentCandidates, sl.MaxCandidates)
	sl.UpdatedAt = time.Now()
	return cloneSlot(sl), nil
}

func (r *slotRepo) UpdateDetails(_ context.Context, id string, d repository.SlotDetails) (*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok || sl.CurrentCandidates > d.MaxCandidates {
		return nil, nil
	}
	sl.StartTime = d.StartTime
	sl.EndTime = d.EndTime
	sl.MaxCandidates = d.MaxCandidates
	sl.Notes = d.Notes
	sl.UpdatedAt = d.UpdatedAt
	sl.Status = model.SlotStatusFor(sl.CurrentCandidates, sl.MaxCandidates)
	return cloneSlot(sl), nil
}

func (r *slotRepo) DeleteUnreserved(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok || sl.CurrentCandidates > 0 {
		return false, nil
	}
	delete(r.s.slots, id)
	return true, nil
}
