package pipeline

import (
	"fmt"

	"github.com/yourusername/formcast/internal/models"
)

// RaceValidator validates parsed race data before analysis
type RaceValidator struct{}

// NewRaceValidator creates a new race validator
func NewRaceValidator() *RaceValidator {
	return &RaceValidator{}
}

// ValidateRace validates a parsed race for required fields and constraints
func (v *RaceValidator) ValidateRace(parsed *models.ParsedRace) []string {
	var errors []string

	if parsed.Race == nil {
		return []string{"race header is missing"}
	}

	if parsed.Race.Track == "" {
		errors = append(errors, "track is required")
	}

	if parsed.Race.RaceNumber <= 0 {
		errors = append(errors, fmt.Sprintf("race number must be positive, got %d", parsed.Race.RaceNumber))
	}

	if parsed.Race.Distance != 0 && (parsed.Race.Distance < 100 || parsed.Race.Distance > 1200) {
		errors = append(errors, fmt.Sprintf("distance out of range (100-1200m), got %d", parsed.Race.Distance))
	}

	seen := make(map[int]string, len(parsed.Entrants))
	for _, e := range parsed.Entrants {
		errors = append(errors, v.ValidateEntrant(e)...)

		if prior, dup := seen[e.Box]; dup {
			errors = append(errors, fmt.Sprintf("%v: box %d (%s and %s)", models.ErrDuplicateBox, e.Box, prior, e.Name))
		} else {
			seen[e.Box] = e.Name
		}
	}

	return errors
}

// ValidateEntrant validates entrant data for required fields and constraints
func (v *RaceValidator) ValidateEntrant(e *models.Entrant) []string {
	var errors []string

	if e.Name == "" {
		errors = append(errors, "entrant name is required")
	}

	if e.Box < 1 || e.Box > 8 {
		errors = append(errors, fmt.Sprintf("box must be 1-8 for greyhounds, got %d", e.Box))
	}

	if e.CareerStarts < 0 {
		errors = append(errors, "career starts cannot be negative")
	}

	if e.CareerWins > e.CareerStarts {
		errors = append(errors, fmt.Sprintf("career wins %d exceed starts %d", e.CareerWins, e.CareerStarts))
	}

	if e.DaysSinceLastRun != nil && *e.DaysSinceLastRun < 0 {
		errors = append(errors, "days since last run cannot be negative")
	}

	if e.Sex != "" && e.Sex != "M" && e.Sex != "F" {
		errors = append(errors, fmt.Sprintf("sex must be M or F, got %s", e.Sex))
	}

	return errors
}

// HasDuplicateBoxes reports whether two entrants in a race claim the same box
func (v *RaceValidator) HasDuplicateBoxes(parsed *models.ParsedRace) bool {
	seen := make(map[int]bool, len(parsed.Entrants))
	for _, e := range parsed.Entrants {
		if seen[e.Box] {
			return true
		}
		seen[e.Box] = true
	}
	return false
}
