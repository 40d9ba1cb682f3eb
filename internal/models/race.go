package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Race represents one race header parsed from a form document. Fields are set
// when the header line matches and never change afterwards; all entrants parsed
// until the next header inherit them.
type Race struct {
	ID            uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	Track         string    `db:"track" json:"track" validate:"required"`
	RaceNumber    int       `db:"race_number" json:"race_number" validate:"required,gt=0"`
	Distance      int       `db:"distance" json:"distance" validate:"required,gt=0"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	RaceDate      string    `db:"race_date" json:"race_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RaceKey identifies a race across documents after venue normalization.
type RaceKey struct {
	Track      string
	RaceNumber int
}

// Key returns the merge key for this race.
func (r *Race) Key() RaceKey {
	return RaceKey{Track: NormalizeVenue(r.Track), RaceNumber: r.RaceNumber}
}

func (k RaceKey) String() string {
	return fmt.Sprintf("%s R%d", k.Track, k.RaceNumber)
}

// NormalizeVenue canonicalizes a track name for merge keys: uppercase with
// collapsed whitespace, so "Angle Park" and "ANGLE  PARK" collide on purpose.
func NormalizeVenue(track string) string {
	return strings.ToUpper(strings.Join(strings.Fields(track), " "))
}

// DefaultDistanceM substitutes an unresolvable per-entrant distance; it lands
// in the Middle category.
const DefaultDistanceM = 450

// DistanceCategory groups distances into the three weight-profile buckets.
type DistanceCategory string

const (
	Sprint DistanceCategory = "sprint" // < 400m
	Middle DistanceCategory = "middle" // 400-500m inclusive
	Long   DistanceCategory = "long"   // > 500m
)

// CategoryForDistance maps a distance in meters to its category.
func CategoryForDistance(distance int) DistanceCategory {
	switch {
	case distance < 400:
		return Sprint
	case distance <= 500:
		return Middle
	default:
		return Long
	}
}
