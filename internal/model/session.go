package model

import "time"

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session is the interview produced by an accepted reservation.
// Participants, Date, StartTime and EndTime are snapshots taken at accept
// time; later day or slot edits do not reach them.
type Session struct {
	ID              string        `json:"id" bson:"_id"`
	CandidateID     string        `json:"candidateId" bson:"candidateId"`
	InterviewerID   string        `json:"interviewerId" bson:"interviewerId"`
	ReservationID   string        `json:"reservationId" bson:"reservationId"`
	SlotID          string        `json:"slotId" bson:"slotId"`
	Date            string        `json:"date" bson:"date"`
	StartTime       string        `json:"startTime" bson:"startTime"`
	EndTime         string        `json:"endTime" bson:"endTime"`
	Status          SessionStatus `json:"status" bson:"status"`
	ActualStartTime *time.Time    `json:"actualStartTime,omitempty" bson:"actualStartTime,omitempty"`
	ActualEndTime   *time.Time    `json:"actualEndTime,omitempty" bson:"actualEndTime,omitempty"`
	RecordingURL    string        `json:"recordingUrl,omitempty" bson:"recordingUrl,omitempty"`
	Notes           string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CancelledReason string        `json:"cancelledReason,omitempty" bson:"cancelledReason,omitempty"`
	CancelledBy     string        `json:"cancelledBy,omitempty" bson:"cancelledBy,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// HasParticipant reports whether userID is the candidate or interviewer
func (s *Session) HasParticipant(userID string) bool {
	return s.CandidateID == userID || s.InterviewerID == userID
}

// RoomName is the realtime room for the session
func RoomName(sessionID string) string {
	return "session-" + sessionID
}

// SessionChange carries the fields a lifecycle transition writes
type SessionChange struct {
	Status          SessionStatus
	ActualStartTime *time.Time
	ActualEndTime   *time.Time
	Notes           *string
	CancelledReason string
	CancelledBy     string
	UpdatedAt       time.Time
}

// Apply writes the change onto s
func (c SessionChange) Apply(s *Session) {
	s.Status = c.Status
	if c.ActualStartTime != nil {
		t := *c.ActualStartTime
		s.ActualStartTime = &t
	}
	if c.ActualEndTime != nil {
		t := *c.ActualEndTime
		s.ActualEndTime = &t
	}
	if c.Notes != nil {
		s.Notes = *c.Notes
	}
	if c.CancelledReason != "" {
		s.CancelledReason = c.CancelledReason
	}
	if c.CancelledBy != "" {
		s.CancelledBy = c.CancelledBy
	}
	s.UpdatedAt = c.UpdatedAt
}

// SessionStatusEvent is pushed to the session room on every transition
type SessionStatusEvent struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	ChangedBy string        `json:"changedBy"`
}

// AllSessionStatuses lists every lifecycle state
var AllSessionStatuses = []SessionStatus{SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled}
