package service

import (
	"context"
	"intervue/internal/apperror"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// windowLeaseTTL bounds how long a crashed writer can block an interviewer's day
	windowLeaseTTL = 10 * time.Second
	releaseTimeout = 5 * time.Second
)

func windowKey(interviewerID, dayID string) string {
	return "slot-window/" + interviewerID + "/" + dayID
}

// lockWindow leases one interviewer's day for an overlap check and the slot
// write after it. A held lease is a Conflict; the store, not this process,
// arbitrates, so replicas sharing a database serialise too.
func (s *SlotService) lockWindow(ctx context.Context, interviewerID, dayID string) (func(), error) {
	key := windowKey(interviewerID, dayID)
	holder := uuid.NewString()
	now := s.now()

	ok, err := s.leases.Acquire(ctx, key, holder, now, now.Add(windowLeaseTTL))
	if err != nil {
		return nil, apperror.NewInternal("acquire slot window", err)
	}
	if !ok {
		s.log.Debug("slot window busy", zap.String("interviewerId", interviewerID), zap.String("dayId", dayID))
		return nil, apperror.NewConflict("another change to this interviewer's slots on this day is in progress")
	}

	return func() {
		// a cancelled request still frees the window
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.leases.Release(ctx, key, holder); err != nil {
			s.log.Warn("release slot window failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
