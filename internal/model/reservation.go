package model

import "time"

type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "pending"
	ReservationAccepted ReservationStatus = "accepted"
	ReservationRejected ReservationStatus = "rejected"
)

// Reservation is a candidate's claim on one unit of slot capacity.
// InterviewerID is a snapshot of the slot owner at creation time.
type Reservation struct {
	ID              string            `json:"id" bson:"_id"`
	CandidateID     string            `json:"candidateId" bson:"candidateId"`
	InterviewerID   string            `json:"interviewerId" bson:"interviewerId"`
	SlotID          string            `json:"slotId" bson:"slotId"`
	Status          ReservationStatus `json:"status" bson:"status"`
	Note            string            `json:"note,omitempty" bson:"note,omitempty"`
	RejectionReason string            `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	RespondedAt     *time.Time        `json:"respondedAt,omitempty" bson:"respondedAt,omitempty"`
	RespondedBy     string            `json:"respondedBy,omitempty" bson:"respondedBy,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Active reports whether the reservation still holds slot capacity
func (r *Reservation) Active() bool {
	return r.Status == ReservationPending || r.Status == ReservationAccepted
}

// ReservationResponse is the change applied when an interviewer responds
type ReservationResponse struct {
	Status          ReservationStatus
	RejectionReason string
	RespondedBy     string
	RespondedAt     time.Time
}

// ReservationFilter narrows reservation listings; empty fields match all
type ReservationFilter struct {
	CandidateID   string
	InterviewerID string
	SlotID        string
	Status        ReservationStatus
}
