// Package memory is an in-process implementation of the repositories. Every
// conditional write checks and mutates under one lock, so it gives the same
// guarantees as the MongoDB filters it mirrors.
package memory

import (
	"intervue/internal/model"
	"intervue/internal/repository"
	"sync"
)

type Store struct {
	mu           sync.Mutex
	days         map[string]*model.Day
	slots        map[string]*model.Slot
	reservations map[string]*model.Reservation
	sessions     map[string]*model.Session
	evaluations  map[string]*model.Evaluation
	leases       map[string]lease
}

func New() *Store {
	return &Store{
		days:         make(map[string]*model.Day),
		slots:        make(map[string]*model.Slot),
		reservations: make(map[string]*model.Reservation),
		sessions:     make(map[string]*model.Session),
		evaluations:  make(map[string]*model.Evaluation),
		leases:       make(map[string]lease),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Days:         &dayRepo{s},
		Slots:        &slotRepo{s},
		Reservations: &reservationRepo{s},
		Sessions:     &sessionRepo{s},
		Evaluations:  &evaluationRepo{s},
		Leases:       &leaseRepo{s},
	}
}

func cloneDay(d *model.Day) *model.Day {
	c := *d
	return &c
}

func cloneSlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

func cloneReservation(r *model.Reservation) *model.Reservation {
	c := *r
	if r.RespondedAt != nil {
		v := *r.RespondedAt
		c.RespondedAt = &v
	}
	return &c
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	if s.ActualStartTime != nil {
		v := *s.ActualStartTime
		c.ActualStartTime = &v
	}
	if s.ActualEndTime != nil {
		v := *s.ActualEndTime
		c.ActualEndTime = &v
	}
	return &c
}

func cloneEvaluation(e *model.Evaluation) *model.Evaluation {
	c := *e
	return &c
}
