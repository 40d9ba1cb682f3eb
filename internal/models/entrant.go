package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entrant represents one competitor parsed from a form document. Header fields
// are filled when the entrant-header line matches; detail lines recognized
// afterwards mutate the record in place until the next entrant or race header
// closes it. Race context fields are inherited from the open Race at creation.
type Entrant struct {
	ID     uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	RaceID uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`

	Box        int    `db:"box" json:"box" validate:"required,gt=0,lt=15"`
	Name       string `db:"name" json:"name" validate:"required"`
	FormNumber string `db:"form_number" json:"form_number"`
	Trainer    string `db:"trainer" json:"trainer"`
	Age        *int   `db:"age" json:"age"`
	Sex        string `db:"sex" json:"sex"`

	Weight       *float64         `db:"weight" json:"weight"`
	Draw         *int             `db:"draw" json:"draw"`
	CareerWins   int              `db:"career_wins" json:"career_wins"`
	CareerPlaces int              `db:"career_places" json:"career_places"`
	CareerStarts int              `db:"career_starts" json:"career_starts"`
	PrizeMoney   *decimal.Decimal `db:"prize_money" json:"prize_money"`

	DaysSinceLastRun *int `db:"days_since_last_run" json:"days_since_last_run"`
	DaysSinceLastWin *int `db:"days_since_last_win" json:"days_since_last_win"`

	BestTimeSec   *float64  `db:"best_time_sec" json:"best_time_sec"`
	SectionalSec  *float64  `db:"sectional_sec" json:"sectional_sec"`
	LastThreeSec  []float64 `db:"-" json:"last_three_sec,omitempty"`
	Margins       []float64 `db:"-" json:"margins,omitempty"`
	BoxHistory    string    `db:"box_history" json:"box_history"`
	BoxWins       *int      `db:"box_wins" json:"box_wins"`
	BoxPlaces     *int      `db:"box_places" json:"box_places"`
	RaceComment   string    `db:"race_comment" json:"race_comment"`
	TrackGoing    string    `db:"track_going" json:"track_going"`
	TrainerStrike *float64  `db:"trainer_strike" json:"trainer_strike"`

	// Race context inherited from the open race scope at creation time.
	Track      string `db:"track" json:"track"`
	RaceNumber int    `db:"race_number" json:"race_number"`
	Distance   int    `db:"distance" json:"distance"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Race      *Race     `db:"-" json:"-"`
}

// GetBestTime returns the best time or 0 if none was extracted.
func (e *Entrant) GetBestTime() float64 {
	if e.BestTimeSec == nil {
		return 0
	}
	return *e.BestTimeSec
}

// GetDaysSinceLastRun returns days since last run, or a high number if unknown.
func (e *Entrant) GetDaysSinceLastRun() int {
	if e.DaysSinceLastRun == nil {
		return 999
	}
	return *e.DaysSinceLastRun
}

// GetPrizeMoney returns prize money as a float, 0 if absent.
func (e *Entrant) GetPrizeMoney() float64 {
	if e.PrizeMoney == nil {
		return 0
	}
	f, _ := e.PrizeMoney.Float64()
	return f
}

// WinRate returns career wins over starts, 0 for an unraced entrant.
func (e *Entrant) WinRate() float64 {
	if e.CareerStarts <= 0 {
		return 0
	}
	return float64(e.CareerWins) / float64(e.CareerStarts)
}

// ParsedRace pairs a race header with the entrants parsed under it, in
// document order.
type ParsedRace struct {
	Race     *Race
	Entrants []*Entrant
}
