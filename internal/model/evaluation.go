package model

import (
	"fmt"
	"math"
	"time"
)

const (
	MinScore = 0
	MaxScore = 10
)

type CriterionScore struct {
	Score    float64 `json:"score" bson:"score"`
	Comments string  `json:"comments,omitempty" bson:"comments,omitempty"`
}

type Criteria struct {
	Communication  CriterionScore `json:"communication" bson:"communication"`
	Technical      CriterionScore `json:"technical" bson:"technical"`
	ProblemSolving CriterionScore `json:"problemSolving" bson:"problemSolving"`
	Confidence     CriterionScore `json:"confidence" bson:"confidence"`
}

// Validate checks every score is within range
func (c Criteria) Validate() error {
	for name, s := range map[string]float64{
		"communication":  c.Communication.Score,
		"technical":      c.Technical.Score,
		"problemSolving": c.ProblemSolving.Score,
		"confidence":     c.Confidence.Score,
	} {
		if s < MinScore || s > MaxScore || math.IsNaN(s) {
			return fmt.Errorf("%s score must be between %d and %d", name, MinScore, MaxScore)
		}
	}
	return nil
}

// Overall is the mean of the four scores rounded to one decimal
func (c Criteria) Overall() float64 {
	sum := c.Communication.Score + c.Technical.Score + c.ProblemSolving.Score + c.Confidence.Score
	return math.Round(sum/4*10) / 10
}

// Evaluation is the interviewer's scored assessment of a completed session.
// Participant ids are copied from the session and never change.
type Evaluation struct {
	ID            string    `json:"id" bson:"_id"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	CandidateID   string    `json:"candidateId" bson:"candidateId"`
	InterviewerID string    `json:"interviewerId" bson:"interviewerId"`
	Criteria      Criteria  `json:"criteria" bson:"criteria"`
	OverallScore  float64   `json:"overallScore" bson:"overallScore"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EvaluationInput is what an interviewer submits
type EvaluationInput struct {
	Criteria     Criteria `json:"criteria"`
	OverallScore *float64 `json:"overallScore,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Score resolves the overall score, preferring an explicit value
func (in EvaluationInput) Score() (float64, error) {
	if in.OverallScore == nil {
		return in.Criteria.Overall(), nil
	}
	o := *in.OverallScore
	if o < MinScore || o > MaxScore || math.IsNaN(o) {
		return 0, fmt.Errorf("overall score must be between %d and %d", MinScore, MaxScore)
	}
	return o, nil
}
