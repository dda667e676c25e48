package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Day is a calendar date that slots hang off.
type Day struct {
	ID        string    `json:"id" bson:"_id"`
	Date      string    `json:"date" bson:"date"`
	Title     string    `json:"title" bson:"title"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DayPatch holds the mutable day fields; nil means unchanged
type DayPatch struct {
	Date     *string `json:"date,omitempty"`
	Title    *string `json:"title,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ValidateDate checks the YYYY-MM-DD form
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	return nil
}
