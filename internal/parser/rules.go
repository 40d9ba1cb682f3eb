package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// rule is one (predicate, handler) pair from the ordered table. apply returns
// true when the line matched, which stops evaluation for that line; rule order
// in the table is therefore an explicit precedence.
type rule struct {
	name  string
	apply func(st *state, line string) bool
}

var (
	// "Race No  1 Oct 16 04:00PM Angle Park 530m"
	raceHeaderRE = regexp.MustCompile(`^Race No\s+(\d{1,2})\s+([A-Za-z]{3})\s+(\d{2})\s+(\d{2}:\d{2}[AP]M)\s+([A-Za-z ]+?)\s+(\d+)m`)

	// "1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62"
	entrantHeaderRE = regexp.MustCompile(`^(\d+)\.?\s*([0-9]{3,6})?([A-Za-z'’ -]+?)\s+(\d+[a-z])\s+([\d.]+)kg\s+(\d+)\s+([A-Za-z'’ -]+?)\s+(\d+)\s*-\s*(\d+)\s*-\s*(\d+)\s+\$([\d,]+)\s+(\S+)\s+(\S+)\s+(\S+)$`)

	distanceNoteRE = regexp.MustCompile(`Distance (\d+)m`)
	raceTimeRE     = regexp.MustCompile(`Race Time (\d+):(\d+\.\d+)`)
	secTimeRE      = regexp.MustCompile(`Sec Time (\d+\.\d+)`)

	legacyTimesRE = regexp.MustCompile(`Best:\s*(\d+\.\d+)\s+Sectional:\s*(\d+\.\d+)`)
	lastThreeRE   = regexp.MustCompile(`Last3:\s*\[([\d., ]+)\]`)
	marginsRE     = regexp.MustCompile(`Margins:\s*\[([\d., ]+)\]`)

	trainerRE        = regexp.MustCompile(`Trainer[: ]+([A-Za-z'’ -]+)`)
	trainerRateRE    = regexp.MustCompile(`Win Rate[: ]+(\d{1,2}(?:\.\d+)?)%`)
	boxHistoryRE     = regexp.MustCompile(`Box History[: ]*(.+)`)
	boxWinsRE        = regexp.MustCompile(`Box Wins[: ]*(\d+)`)
	boxPlacesRE      = regexp.MustCompile(`Box Places[: ]*(\d+)`)
	raceCommentRE    = regexp.MustCompile(`Race Comment[: ]+(.+)`)
	trackConditionRE = regexp.MustCompile(`Track Condition[: ]+(.+)`)
)

var monthNumbers = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// Words that disqualify an all-caps line from being an entrant section header.
var sectionHeaderStopWords = []string{"RACE", "PRIZE", "DISTANCE", "TRACK", "HORSE", "WINNER"}

// ruleTable builds the full ordered rule list. Header rules come first, then
// the section-header cursor rule, then detail rules; a line matching none of
// them is a recoverable parse gap and is silently discarded by the caller.
func ruleTable() []rule {
	return []rule{
		{name: "race_header", apply: applyRaceHeader},
		{name: "entrant_header", apply: applyEntrantHeader},
		{name: "section_header", apply: applySectionHeader},
		{name: "distance_note", apply: applyDistanceNote},
		{name: "race_time", apply: applyRaceTime},
		{name: "sec_time", apply: applySecTime},
		{name: "legacy_times", apply: applyLegacyTimes},
		{name: "margins", apply: applyMargins},
		{name: "trainer_rate", apply: applyTrainerRate},
		{name: "trainer", apply: applyTrainer},
		{name: "box_history", apply: applyBoxHistory},
		{name: "box_wins", apply: applyBoxWins},
		{name: "box_places", apply: applyBoxPlaces},
		{name: "race_comment", apply: applyRaceComment},
		{name: "track_condition", apply: applyTrackCondition},
	}
}

func applyRaceHeader(st *state, line string) bool {
	m := raceHeaderRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	month := monthNumbers[m[2]]
	date := ""
	if month != 0 {
		date = fmt.Sprintf("%04d-%02d-%s", time.Now().Year(), month, m[3])
	}

	distance := 0
	if d := toInt(m[6]); d != nil {
		distance = *d
	}
	st.openRace(strings.TrimSpace(m[5]), m[4], date, distance)
	return true
}

func applyEntrantHeader(st *state, line string) bool {
	m := entrantHeaderRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	e := st.openEntrant()
	if e == nil {
		// Entrant line before any race header; nothing to attach it to.
		return true
	}

	if box := toInt(m[1]); box != nil {
		e.Box = *box
	}
	e.FormNumber = m[2]
	e.Name = degluedName(m[2], m[3])
	e.Age, e.Sex = splitAgeSex(m[4])
	e.Weight = toFloat(m[5])
	e.Draw = toInt(m[6])
	e.Trainer = strings.TrimSpace(m[7])
	if v := toInt(m[8]); v != nil {
		e.CareerWins = *v
	}
	if v := toInt(m[9]); v != nil {
		e.CareerPlaces = *v
	}
	if v := toInt(m[10]); v != nil {
		e.CareerStarts = *v
	}
	e.PrizeMoney = moneyToDecimal(m[11])
	// m[12] is races-to-city form, unused. Malformed recency tokens degrade
	// to nil instead of rejecting the line.
	e.DaysSinceLastRun = toInt(m[13])
	e.DaysSinceLastWin = toInt(m[14])
	return true
}

// applySectionHeader recognizes the all-caps name line that opens an
// entrant's detail section and moves the detail cursor there, even when that
// entrant was already closed by a later header.
func applySectionHeader(st *state, line string) bool {
	if line != strings.ToUpper(line) || len(line) < 3 || len(line) > 50 {
		return false
	}
	if len(strings.Fields(line)) > 5 {
		return false
	}
	for _, stop := range sectionHeaderStopWords {
		if strings.Contains(line, stop) {
			return false
		}
	}

	e := st.findByName(normalizeName(line))
	if e == nil {
		return false
	}
	st.detailTarget = e
	st.pendingDist = nil
	return true
}

func applyDistanceNote(st *state, line string) bool {
	m := distanceNoteRE.FindStringSubmatch(line)
	if m == nil || st.target() == nil {
		return false
	}
	st.pendingDist = toInt(m[1])
	return true
}

func applyRaceTime(st *state, line string) bool {
	m := raceTimeRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	e := st.target()
	if e == nil {
		return true // detail line before any entrant: discard
	}

	minutes := toInt(m[1])
	seconds := toFloat(m[2])
	if minutes == nil || seconds == nil {
		return true
	}
	total := float64(*minutes)*60 + *seconds
	if total >= minRaceTimeSec && total <= maxRaceTimeSec {
		st.timing[e].raceTimes = append(st.timing[e].raceTimes, timedObs{sec: total, distance: st.pendingDist})
	}
	st.pendingDist = nil
	return true
}

func applySecTime(st *state, line string) bool {
	m := secTimeRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	e := st.target()
	if e == nil {
		return true
	}

	if sec := toFloat(m[1]); sec != nil && *sec >= minSectionalSec && *sec <= maxSectionalSec {
		st.timing[e].secTimes = append(st.timing[e].secTimes, timedObs{sec: *sec, distance: st.pendingDist})
	}
	st.pendingDist = nil
	return true
}

// applyLegacyTimes handles the older "Best: 22.45 Sectional: 5.12" block,
// optionally carrying a Last3 list on the same line.
func applyLegacyTimes(st *state, line string) bool {
	m := legacyTimesRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	e := st.target()
	if e == nil {
		return true
	}

	if best := toFloat(m[1]); best != nil && *best >= minRaceTimeSec && *best <= maxRaceTimeSec {
		e.BestTimeSec = best
	}
	if sec := toFloat(m[2]); sec != nil && *sec >= minSectionalSec && *sec <= maxSectionalSec {
		e.SectionalSec = sec
	}
	if lm := lastThreeRE.FindStringSubmatch(line); lm != nil {
		if vals := parseFloatList(lm[1]); len(vals) > 0 {
			e.LastThreeSec = vals
		}
	}
	return true
}

func applyMargins(st *state, line string) bool {
	m := marginsRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	e := st.target()
	if e == nil {
		return true
	}
	if vals := parseFloatList(m[1]); len(vals) > 0 {
		e.Margins = vals
	}
	return true
}

func applyTrainer(st *state, line string) bool {
	m := trainerRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.Trainer = strings.TrimSpace(m[1])
	}
	return true
}

func applyTrainerRate(st *state, line string) bool {
	m := trainerRateRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		if rate := toFloat(m[1]); rate != nil {
			strike := *rate / 100
			e.TrainerStrike = &strike
		}
	}
	return true
}

func applyBoxHistory(st *state, line string) bool {
	m := boxHistoryRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.BoxHistory = strings.TrimSpace(m[1])
	}
	return true
}

func applyBoxWins(st *state, line string) bool {
	m := boxWinsRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.BoxWins = toInt(m[1])
	}
	return true
}

func applyBoxPlaces(st *state, line string) bool {
	m := boxPlacesRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.BoxPlaces = toInt(m[1])
	}
	return true
}

func applyRaceComment(st *state, line string) bool {
	m := raceCommentRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.RaceComment = strings.TrimSpace(m[1])
	}
	return true
}

func applyTrackCondition(st *state, line string) bool {
	m := trackConditionRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if e := st.target(); e != nil {
		e.TrackGoing = strings.TrimSpace(m[1])
	}
	return true
}
