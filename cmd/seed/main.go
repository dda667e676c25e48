package main

import (
	"context"
	"flag"
	"fmt"
	"intervue/internal/app"
	"intervue/internal/apperror"
	"intervue/internal/config"
	"intervue/internal/logger"
	"intervue/internal/model"
	"intervue/internal/service"
	"log"
	"time"

	"go.uber.org/zap"
)

func main() {
	date := flag.String("date", time.Now().AddDate(0, 0, 1).Format(model.DateLayout), "interview day to create (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logr, err := logger.New(cfg.Env, "warn")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect", zap.Error(err))
	}
	defer a.Close(ctx)

	admin := model.Identity{UserID: "admin-1", Role: model.RoleAdmin, Name: "Admin"}
	interviewer := model.Identity{UserID: "interviewer-1", Role: model.RoleInterviewer, Name: "Interviewer"}
	candidate := model.Identity{UserID: "candidate-1", Role: model.RoleCandidate, Name: "Candidate"}

	day, err := a.Days.Create(ctx, admin, service.CreateDayInput{Date: *date, Title: "Seeded interview day"})
	if apperror.KindOf(err) == apperror.Conflict {
		fmt.Printf("Day %s already exists, skipping\n", *date)
	} else if err != nil {
		logr.Fatal("create day", zap.Error(err))
	} else {
		fmt.Printf("Day %s created: %s\n", day.Date, day.ID)

		for _, w := range []struct{ start, end string }{{"09:00", "10:00"}, {"10:30", "11:30"}, {"14:00", "15:00"}} {
			slot, err := a.Slots.CreateSlot(ctx, interviewer, service.CreateSlotInput{
				DayID:         day.ID,
				StartTime:     w.start,
				EndTime:       w.end,
				MaxCandidates: 2,
			})
			if err != nil {
				logr.Fatal("create slot", zap.Error(err))
			}
			fmt.Printf("  slot %s-%s: %s\n", slot.StartTime, slot.EndTime, slot.ID)
		}
	}

	fmt.Println("\nDevelopment tokens:")
	for _, id := range []model.Identity{admin, interviewer, candidate} {
		token, err := a.Auth.IssueToken(id)
		if err != nil {
			logr.Fatal("issue token", zap.Error(err))
		}
		fmt.Printf("  %-11s %s\n    %s\n", id.Role, id.UserID, token)
	}
}
