package service

import (
	"context"
	"intervue/internal/apperror"
	"intervue/internal/model"
	"intervue/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotService owns slot details. Capacity counters are only moved by the
// reservation workflow.
type SlotService struct {
	slotRepo repository.SlotRepo
	dayRepo  repository.DayRepo
	leases   repository.LeaseRepo
	log      *zap.Logger
	now      func() time.Time
}

// NewSlotService creates a new slot service
func NewSlotService(slotRepo repository.SlotRepo, dayRepo repository.DayRepo, leases repository.LeaseRepo, log *zap.Logger) *SlotService {
	return &SlotService{
		slotRepo: slotRepo,
		dayRepo:  dayRepo,
		leases:   leases,
		log:      log,
		now:      time.Now,
	}
}

type CreateSlotInput struct {
	DayID string `json:"-"`
	// InterviewerID is required for admins and ignored for interviewers
	InterviewerID string `json:"interviewerId,omitempty"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	MaxCandidates int    `json:"maxCandidates"`
	Notes         string `json:"notes,omitempty"`
}

func (s *SlotService) CreateSlot(ctx context.Context, actor model.Identity, in CreateSlotInput) (*model.Slot, error) {
	if err := requireRole(actor, model.RoleInterviewer, model.RoleAdmin); err != nil {
		return nil, err
	}
	interviewerID := actor.UserID
	if actor.IsAdmin() {
		interviewerID = strings.TrimSpace(in.InterviewerID)
		if interviewerID == "" {
			return nil, apperror.NewValidation("interviewerId is required")
		}
	}

	window, err := model.ParseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	if in.MaxCandidates < 1 {
		return nil, apperror.NewValidation("maxCandidates must be at least 1")
	}

	day, err := s.dayRepo.GetByID(ctx, in.DayID)
	if err != nil {
		return nil, apperror.NewInternal("load day", err)
	}
	if day == nil {
		return nil, apperror.NewNotFound("day")
	}
	if !day.IsActive {
		return nil, apperror.NewInvalidState("day is not active")
	}

	unlock, err := s.lockWindow(ctx, interviewerID, day.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if err := s.checkOverlap(ctx, interviewerID, day.ID, window, ""); err != nil {
		return nil, err
	}

	now := s.now()
	slot := &model.Slot{
		ID:                uuid.NewString(),
		DayID:             day.ID,
		InterviewerID:     interviewerID,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		MaxCandidates:     in.MaxCandidates,
		CurrentCandidates: 0,
		Status:            model.SlotAvailable,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, apperror.NewInternal("create slot", err)
	}

	s.log.Info("slot created",
		zap.String("slotId", slot.ID),
		zap.String("dayId", slot.DayID),
		zap.String("interviewerId", slot.InterviewerID),
		zap.String("start", slot.StartTime),
		zap.String("end", slot.EndTime),
	)
	return slot, nil
}

// checkOverlap fails when window intersects a sibling slot of the same
// interviewer that is still open for booking
func (s *SlotService) checkOverlap(ctx context.Context, interviewerID, dayID string, window model.Window, excludeID string) error {
	siblings, err := s.slotRepo.ListByInterviewerAndDay(ctx, interviewerID, dayID)
	if err != nil {
		return apperror.NewInternal("list slots", err)
	}
	for _, sib := range siblings {
		if sib.ID == excludeID || !sib.Blocking() {
			continue
		}
		w, err := model.ParseWindow(sib.StartTime, sib.EndTime)
		if err != nil {
			s.log.Warn("skipping slot with unparseable times", zap.String("slotId", sib.ID), zap.Error(err))
			continue
		}
		if window.Overlaps(w) {
			return apperror.NewConflict("slot overlaps " + sib.StartTime + "-" + sib.EndTime)
		}
	}
	return nil
}

func (s *SlotService) GetSlot(ctx context.Context, id string) (*model.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load slot", err)
	}
	if slot == nil {
		return nil, apperror.NewNotFound("slot")
	}
	return slot, nil
}

func (s *SlotService) ListDaySlots(ctx context.Context, dayID string) ([]*model.Slot, error) {
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		return nil, apperror.NewInternal("load day", err)
	}
	if day == nil {
		return nil, apperror.NewNotFound("day")
	}
	slots, err := s.slotRepo.ListByDay(ctx, dayID)
	if err != nil {
		return nil, apperror.NewInternal("list slots", err)
	}
	return slots, nil
}

// UpdateSlot edits owner fields. Sessions already created from the slot keep
// their snapshot times.
func (s *SlotService) UpdateSlot(ctx context.Context, actor model.Identity, id string, patch model.SlotPatch) (*model.Slot, error) {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, slot.InterviewerID); err != nil {
		return nil, err
	}

	details := repository.SlotDetails{
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		MaxCandidates: slot.MaxCandidates,
		Notes:         slot.Notes,
		UpdatedAt:     s.now(),
	}
	if patch.StartTime != nil {
		details.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		details.EndTime = *patch.EndTime
	}
	if patch.Notes != nil {
		details.Notes = *patch.Notes
	}
	if patch.MaxCandidates != nil {
		if *patch.MaxCandidates < 1 {
			return nil, apperror.NewValidation("maxCandidates must be at least 1")
		}
		details.MaxCandidates = *patch.MaxCandidates
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		window, err := model.ParseWindow(details.StartTime, details.EndTime)
		if err != nil {
			return nil, apperror.NewValidation(err.Error())
		}
		unlock, err := s.lockWindow(ctx, slot.InterviewerID, slot.DayID)
		if err != nil {
			return nil, err
		}
		defer unlock()
		if err := s.checkOverlap(ctx, slot.InterviewerID, slot.DayID, window, slot.ID); err != nil {
			return nil, err
		}
	}

	if details.MaxCandidates < slot.CurrentCandidates {
		return nil, apperror.NewConflict("maxCandidates cannot be lower than current reservations")
	}

	updated, err := s.slotRepo.UpdateDetails(ctx, id, details)
	if err != nil {
		return nil, apperror.NewInternal("update slot", err)
	}
	if updated == nil {
		// a reservation landed between the read and the write, or the slot is gone
		if _, err := s.GetSlot(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperror.NewConflict("maxCandidates cannot be lower than current reservations")
	}

	s.log.Info("slot updated", zap.String("slotId", id), zap.Int("maxCandidates", updated.MaxCandidates))
	return updated, nil
}

const errSlotReserved = "a slot with pending or accepted reservations cannot be deleted"

// DeleteSlot removes a slot nobody holds a place on. Pending and accepted
// reservations must be rejected or withdrawn first.
func (s *SlotService) DeleteSlot(ctx context.Context, actor model.Identity, id string) error {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, slot.InterviewerID); err != nil {
		return err
	}
	if slot.CurrentCandidates > 0 {
		return apperror.NewInvalidState(errSlotReserved)
	}

	ok, err := s.slotRepo.DeleteUnreserved(ctx, id)
	if err != nil {
		return apperror.NewInternal("delete slot", err)
	}
	if !ok {
		if _, err := s.GetSlot(ctx, id); err != nil {
			return err
		}
		return apperror.NewInvalidState(errSlotReserved)
	}

	s.log.Info("slot deleted", zap.String("slotId", id))
	return nil
}
