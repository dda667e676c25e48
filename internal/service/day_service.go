package service

import (
	"context"
	"errors"
	"intervue/internal/apperror"
	"intervue/internal/cache"
	"intervue/internal/model"
	"intervue/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DayService manages the admin-owned calendar of interview days
type DayService struct {
	dayRepo  repository.DayRepo
	slotRepo repository.SlotRepo
	dayCache cache.DayCache
	log      *zap.Logger
	now      func() time.Time
}

// NewDayService creates a new day service. dayCache may be nil.
func NewDayService(dayRepo repository.DayRepo, slotRepo repository.SlotRepo, dayCache cache.DayCache, log *zap.Logger) *DayService {
	return &DayService{
		dayRepo:  dayRepo,
		slotRepo: slotRepo,
		dayCache: dayCache,
		log:      log,
		now:      time.Now,
	}
}

type CreateDayInput struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	IsActive *bool  `json:"isActive,omitempty"`
}

func (s *DayService) Create(ctx context.Context, actor model.Identity, in CreateDayInput) (*model.Day, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := model.ValidateDate(in.Date); err != nil {
		return nil, apperror.NewValidation(err.Error())
	}

	now := s.now()
	day := &model.Day{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Title:     strings.TrimSpace(in.Title),
		IsActive:  in.IsActive == nil || *in.IsActive,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.dayRepo.Create(ctx, day); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("a day already exists for " + in.Date)
		}
		return nil, apperror.NewInternal("create day", err)
	}
	s.invalidate(ctx)

	s.log.Info("day created", zap.String("dayId", day.ID), zap.String("date", day.Date))
	return day, nil
}

func (s *DayService) Get(ctx context.Context, id string) (*model.Day, error) {
	day, err := s.dayRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal("load day", err)
	}
	if day == nil {
		return nil, apperror.NewNotFound("day")
	}
	return day, nil
}

// List returns days ordered by date. The active list is served from cache when possible.
func (s *DayService) List(ctx context.Context, activeOnly bool) ([]*model.Day, error) {
	if activeOnly && s.dayCache != nil {
		days, err := s.dayCache.GetActive(ctx)
		if err != nil {
			s.log.Warn("day cache read failed", zap.Error(err))
		} else if days != nil {
			return days, nil
		}
	}

	days, err := s.dayRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, apperror.NewInternal("list days", err)
	}

	if activeOnly && s.dayCache != nil {
		if err := s.dayCache.SetActive(ctx, days); err != nil {
			s.log.Warn("day cache write failed", zap.Error(err))
		}
	}
	return days, nil
}

// Update edits a day. Existing sessions keep the date they were accepted with.
func (s *DayService) Update(ctx context.Context, actor model.Identity, id string, patch model.DayPatch) (*model.Day, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	day, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Date != nil {
		if err := model.ValidateDate(*patch.Date); err != nil {
			return nil, apperror.NewValidation(err.Error())
		}
		day.Date = *patch.Date
	}
	if patch.Title != nil {
		day.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.IsActive != nil {
		day.IsActive = *patch.IsActive
	}
	day.UpdatedAt = s.now()

	if err := s.dayRepo.Update(ctx, day); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("a day already exists for " + day.Date)
		}
		return nil, apperror.NewInternal("update day", err)
	}
	s.invalidate(ctx)
	return day, nil
}

// Delete removes a day that no longer has slots
func (s *DayService) Delete(ctx context.Context, actor model.Identity, id string) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.slotRepo.CountByDay(ctx, id)
	if err != nil {
		return apperror.NewInternal("count slots", err)
	}
	if n > 0 {
		return apperror.NewConflict("day still has slots; delete them or deactivate the day")
	}

	ok, err := s.dayRepo.Delete(ctx, id)
	if err != nil {
		return apperror.NewInternal("delete day", err)
	}
	if !ok {
		return apperror.NewNotFound("day")
	}
	s.invalidate(ctx)

	s.log.Info("day deleted", zap.String("dayId", id))
	return nil
}

func (s *DayService) invalidate(ctx context.Context) {
	if s.dayCache == nil {
		return
	}
	if err := s.dayCache.Invalidate(ctx); err != nil {
		s.log.Warn("day cache invalidate failed", zap.Error(err))
	}
}
