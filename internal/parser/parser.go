// Package parser recovers structured race and entrant records from the
// loosely formatted, line-oriented text of a race-form document.
package parser

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/models"
)

// Distance tolerances for matching historical run times to the distance the
// entrant is racing at today.
const (
	distanceExactToleranceM   = 10
	distanceSimilarToleranceM = 50
)

// Plausibility windows for extracted times. Values outside these are noise
// from the upstream text extraction and are dropped at capture.
const (
	minRaceTimeSec  = 10.0
	maxRaceTimeSec  = 200.0
	minSectionalSec = 1.0
	maxSectionalSec = 30.0
)

// timedObs is one historical time observation tagged with the distance it was
// run over, when a Distance line preceded it.
type timedObs struct {
	sec      float64
	distance *int
}

// entrantTiming accumulates raw history-line observations for one entrant.
// They are resolved into BestTimeSec / SectionalSec / LastThreeSec when the
// document closes, once the entrant's race distance is final.
type entrantTiming struct {
	raceTimes []timedObs
	secTimes  []timedObs
}

// state is the explicit parser cursor threaded through the line loop: the
// open race scope, the open entrant, completed groups, and the timing
// attribution target (which may point back at an already-closed entrant when
// its detail section appears later in the document).
type state struct {
	races   []*models.ParsedRace
	race    *models.ParsedRace
	entrant *models.Entrant

	timing       map[*models.Entrant]*entrantTiming
	detailTarget *models.Entrant
	pendingDist  *int

	unmatchedLines int
}

// Parser turns raw document text into ordered (race, entrants) groups.
type Parser struct {
	rules  []rule
	logger *logrus.Logger
}

// New creates a parser with the full ordered rule table.
func New(logger *logrus.Logger) *Parser {
	return &Parser{rules: ruleTable(), logger: logger}
}

// Parse scans the document line by line, evaluating pattern rules in fixed
// priority order. Lines matching no rule are discarded without error; a
// document with no recognizable headers yields an empty result, not an error.
func (p *Parser) Parse(text string) []*models.ParsedRace {
	st := &state{timing: map[*models.Entrant]*entrantTiming{}}

	for _, raw := range strings.Split(text, "\n") {
		line := cleanText(raw)
		if line == "" {
			continue
		}

		matched := false
		for _, r := range p.rules {
			if r.apply(st, line) {
				matched = true
				break
			}
		}
		if !matched {
			st.unmatchedLines++
		}
	}

	st.closeEntrant()
	st.closeRace()
	p.resolveTiming(st)

	entrants := 0
	for _, pr := range st.races {
		entrants += len(pr.Entrants)
	}
	p.logger.WithFields(logrus.Fields{
		"races":     len(st.races),
		"entrants":  entrants,
		"unmatched": st.unmatchedLines,
	}).Debug("Parsed form document")

	return st.races
}

// openRace closes any open entrant and race scope, then starts a new one.
// Race numbers are assigned monotonically per document regardless of the
// number printed on the header.
func (st *state) openRace(track, scheduled, date string, distance int) {
	st.closeEntrant()
	st.closeRace()

	st.race = &models.ParsedRace{
		Race: &models.Race{
			ID:            uuid.New(),
			Track:         track,
			RaceNumber:    len(st.races) + 1,
			Distance:      distance,
			ScheduledTime: scheduled,
			RaceDate:      date,
			CreatedAt:     time.Now(),
		},
	}
	st.detailTarget = nil
	st.pendingDist = nil
}

// openEntrant closes the previous entrant and starts a new record inheriting
// the open race scope. Returns nil when no race scope is open yet, in which
// case the header line is discarded.
func (st *state) openEntrant() *models.Entrant {
	if st.race == nil {
		return nil
	}
	st.closeEntrant()

	e := &models.Entrant{
		ID:         uuid.New(),
		RaceID:     st.race.Race.ID,
		Track:      st.race.Race.Track,
		RaceNumber: st.race.Race.RaceNumber,
		Distance:   st.race.Race.Distance,
		CreatedAt:  time.Now(),
		Race:       st.race.Race,
	}
	st.entrant = e
	st.detailTarget = e
	st.timing[e] = &entrantTiming{}
	return e
}

func (st *state) closeEntrant() {
	if st.entrant == nil {
		return
	}
	st.race.Entrants = append(st.race.Entrants, st.entrant)
	st.entrant = nil
}

func (st *state) closeRace() {
	if st.race == nil {
		return
	}
	st.races = append(st.races, st.race)
	st.race = nil
	st.detailTarget = nil
}

// target returns the entrant detail lines should be attributed to: the
// section-header cursor when one is set, otherwise the open entrant. A nil
// return means the line arrived before any entrant and is discarded.
func (st *state) target() *models.Entrant {
	if st.detailTarget != nil {
		return st.detailTarget
	}
	return st.entrant
}

// findByName matches a normalized section-header line against entrants parsed
// so far in the document.
func (st *state) findByName(normalized string) *models.Entrant {
	if st.entrant != nil && normalizeName(st.entrant.Name) == normalized {
		return st.entrant
	}
	for _, pr := range append(st.races, st.race) {
		if pr == nil {
			continue
		}
		for _, e := range pr.Entrants {
			if normalizeName(e.Name) == normalized {
				return e
			}
		}
	}
	return nil
}

// resolveTiming turns raw history observations into per-entrant best and
// sectional times, preferring runs at the entrant's current distance and
// widening to similar distances only when nothing closer exists. Times from
// vastly different distances are never used.
func (p *Parser) resolveTiming(st *state) {
	for e, obs := range st.timing {
		if times := selectByDistance(obs.raceTimes, e.Distance); len(times) > 0 {
			best := minOf(times)
			e.BestTimeSec = &best
			if len(times) > 3 {
				times = times[len(times)-3:]
			}
			e.LastThreeSec = times
		}
		if secs := selectByDistance(obs.secTimes, e.Distance); len(secs) > 0 {
			best := minOf(secs)
			e.SectionalSec = &best
		}
	}
}

// selectByDistance filters observations within the exact tolerance of the
// race distance, falling back to the similar tolerance.
func selectByDistance(obs []timedObs, raceDistance int) []float64 {
	pick := func(tolerance int) []float64 {
		var out []float64
		for _, o := range obs {
			if o.distance == nil {
				continue
			}
			if diff := *o.distance - raceDistance; diff >= -tolerance && diff <= tolerance {
				out = append(out, o.sec)
			}
		}
		return out
	}

	if exact := pick(distanceExactToleranceM); len(exact) > 0 {
		return exact
	}
	return pick(distanceSimilarToleranceM)
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
