package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotPending   SlotStatus = "pending"
	SlotBooked    SlotStatus = "booked"
)

// Slot is an interviewer's bookable window on a day.
// DayID and InterviewerID are live references.
type Slot struct {
	ID                string     `json:"id" bson:"_id"`
	DayID             string     `json:"dayId" bson:"dayId"`
	InterviewerID     string     `json:"interviewerId" bson:"interviewerId"`
	StartTime         string     `json:"startTime" bson:"startTime"`
	EndTime           string     `json:"endTime" bson:"endTime"`
	MaxCandidates     int        `json:"maxCandidates" bson:"maxCandidates"`
	CurrentCandidates int        `json:"currentCandidates" bson:"currentCandidates"`
	Status            SlotStatus `json:"status" bson:"status"`
	Notes             string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// SlotPatch holds the owner-editable slot fields; nil means unchanged
type SlotPatch struct {
	StartTime     *string `json:"startTime,omitempty"`
	EndTime       *string `json:"endTime,omitempty"`
	MaxCandidates *int    `json:"maxCandidates,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// SlotStatusFor derives the status label from the capacity pair.
func SlotStatusFor(current, max int) SlotStatus {
	switch {
	case current >= max:
		return SlotBooked
	case current <= 0:
		return SlotAvailable
	default:
		return SlotPending
	}
}

// IsFull reports whether no capacity is left, whatever the label says
func (s *Slot) IsFull() bool {
	return s.CurrentCandidates >= s.MaxCandidates
}

// Blocking reports whether the slot takes part in overlap checks
func (s *Slot) Blocking() bool {
	return s.Status == SlotAvailable || s.Status == SlotPending
}

// ParseClock parses an HH:MM wall-clock string into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, fmt.Errorf("time must be HH:MM: %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

// Window is a half-open [Start, End) interval in minutes
type Window struct {
	Start int
	End   int
}

// ParseWindow parses and validates a start/end pair
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if s >= e {
		return Window{}, fmt.Errorf("start time %s must be before end time %s", start, end)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}
