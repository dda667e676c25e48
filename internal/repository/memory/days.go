package memory

import (
	"context"
	"intervue/internal/model"
	"intervue/internal/repository"
	"sort"
)

type dayRepo struct{ s *Store }

func (r *dayRepo) Create(_ context.Context, day *model.Day) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.days[day.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, d := range r.s.days {
		if d.Date == day.Date {
			return repository.ErrDuplicate
		}
	}
	r.s.days[day.ID] = cloneDay(day)
	return nil
}

func (r *dayRepo) GetByID(_ context.Context, id string) (*model.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[id]
	if !ok {
		return nil, nil
	}
	return cloneDay(d), nil
}

func (r *dayRepo) List(_ context.Context, activeOnly bool) ([]*model.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Day, 0, len(r.s.days))
	for _, d := range r.s.days {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, cloneDay(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *dayRepo) Update(_ context.Context, day *model.Day) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.days[day.ID]; !ok {
		return nil
	}
	for id, d := range r.s.days {
		if id != day.ID && d.Date == day.Date {
			return repository.ErrDuplicate
		}
	}
	r.s.days[day.ID] = cloneDay(day)
	return nil
}

func (r *dayRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.days[id]; !ok {
		return false, nil
	}
	delete(r.s.days, id)
	return true, nil
}
