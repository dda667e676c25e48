package memory

import (
	"context"
	"time"
)

type lease struct {
	holder    string
	expiresAt time.Time
}

type leaseRepo struct{ s *Store }

func (r *leaseRepo) Acquire(_ context.Context, key, holder string, now, until time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.leases[key]; ok && l.expiresAt.After(now) {
		return false, nil
	}
	r.s.leases[key] = lease{holder: holder, expiresAt: until}
	return true, nil
}

func (r *leaseRepo) Release(_ context.Context, key, holder string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.leases[key]; ok && l.holder == holder {
		delete(r.s.leases, key)
	}
	return nil
}
