package models

import (
	"time"

	"github.com/google/uuid"
)

// RaceResult represents the settled outcome of a race.
type RaceResult struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Track      string    `db:"track" json:"track" validate:"required"`
	RaceNumber int       `db:"race_number" json:"race_number" validate:"required,gt=0"`
	WinningBox int       `db:"winning_box" json:"winning_box" validate:"required,min=1,max=8"`
	SecondBox  *int      `db:"second_box" json:"second_box,omitempty"`
	WinTimeSec *float64  `db:"win_time_sec" json:"win_time_sec,omitempty"`
	Distance   *int      `db:"distance" json:"distance,omitempty"`
	SettledAt  time.Time `db:"settled_at" json:"settled_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Key returns the race key for joining results against assessments.
func (r *RaceResult) Key() RaceKey {
	return RaceKey{Track: NormalizeVenue(r.Track), RaceNumber: r.RaceNumber}
}
