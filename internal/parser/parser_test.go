package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(log)
}

func TestParseRaceHeader(t *testing.T) {
	doc := "Race No 5 Oct 16 04:00PM Angle Park 530m\n"

	races := newTestParser().Parse(doc)
	require.Len(t, races, 1)

	race := races[0].Race
	assert.Equal(t, "Angle Park", race.Track)
	assert.Equal(t, 530, race.Distance)
	assert.Equal(t, "04:00PM", race.ScheduledTime)
	assert.Equal(t, fmt.Sprintf("%04d-10-16", time.Now().Year()), race.RaceDate)
	// Numbering is positional within the document, not the printed number.
	assert.Equal(t, 1, race.RaceNumber)
	assert.Empty(t, races[0].Entrants)
}

func TestParseRaceNumbersAreMonotonic(t *testing.T) {
	doc := `Race No 7 Oct 16 04:00PM Angle Park 530m
Race No 2 Oct 16 04:30PM Angle Park 595m
Race No 9 Oct 16 05:00PM Angle Park 515m
`
	races := newTestParser().Parse(doc)
	require.Len(t, races, 3)
	for i, pr := range races {
		assert.Equal(t, i+1, pr.Race.RaceNumber)
	}
}

func TestParseEntrantHeader(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
`
	races := newTestParser().Parse(doc)
	require.Len(t, races, 1)
	require.Len(t, races[0].Entrants, 1)

	e := races[0].Entrants[0]
	assert.Equal(t, 1, e.Box)
	assert.Equal(t, "41325", e.FormNumber)
	assert.Equal(t, "Fast Lane", e.Name)
	require.NotNil(t, e.Age)
	assert.Equal(t, 2, *e.Age)
	assert.Equal(t, "M", e.Sex)
	require.NotNil(t, e.Weight)
	assert.InDelta(t, 29.5, *e.Weight, 1e-9)
	require.NotNil(t, e.Draw)
	assert.Equal(t, 1, *e.Draw)
	assert.Equal(t, "J Smith", e.Trainer)
	assert.Equal(t, 4, e.CareerWins)
	assert.Equal(t, 7, e.CareerPlaces)
	assert.Equal(t, 22, e.CareerStarts)
	require.NotNil(t, e.PrizeMoney)
	assert.Equal(t, "12340", e.PrizeMoney.String())
	require.NotNil(t, e.DaysSinceLastRun)
	assert.Equal(t, 14, *e.DaysSinceLastRun)
	require.NotNil(t, e.DaysSinceLastWin)
	assert.Equal(t, 62, *e.DaysSinceLastWin)

	// Race context is inherited from the open race scope.
	assert.Equal(t, "Angle Park", e.Track)
	assert.Equal(t, 530, e.Distance)
	assert.Equal(t, races[0].Race.ID, e.RaceID)
}

func TestParseEntrantMalformedRecencyDegrades(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2b 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 x1st n/a
`
	races := newTestParser().Parse(doc)
	require.Len(t, races[0].Entrants, 1)

	e := races[0].Entrants[0]
	assert.Equal(t, "F", e.Sex)
	assert.Nil(t, e.DaysSinceLastRun)
	assert.Nil(t, e.DaysSinceLastWin)
}

func TestParseEntrantBeforeRaceHeaderDiscarded(t *testing.T) {
	doc := `1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Race No 1 Oct 16 04:00PM Angle Park 530m
`
	races := newTestParser().Parse(doc)
	require.Len(t, races, 1)
	assert.Empty(t, races[0].Entrants)
}

func TestParseLegacyTimesAndMargins(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Best: 30.05 Sectional: 5.42 Last3: [30.05, 30.22, 30.40]
Margins: [1.2, 0.8, 2.0]
Trainer Win Rate: 18.5%
Box History: 1-2-1-4
Box Wins: 3
Box Places: 5
Race Comment: led all the way
Track Condition: Good
`
	races := newTestParser().Parse(doc)
	e := races[0].Entrants[0]

	require.NotNil(t, e.BestTimeSec)
	assert.InDelta(t, 30.05, *e.BestTimeSec, 1e-9)
	require.NotNil(t, e.SectionalSec)
	assert.InDelta(t, 5.42, *e.SectionalSec, 1e-9)
	assert.Equal(t, []float64{30.05, 30.22, 30.40}, e.LastThreeSec)
	assert.Equal(t, []float64{1.2, 0.8, 2.0}, e.Margins)
	require.NotNil(t, e.TrainerStrike)
	assert.InDelta(t, 0.185, *e.TrainerStrike, 1e-9)
	assert.Equal(t, "1-2-1-4", e.BoxHistory)
	require.NotNil(t, e.BoxWins)
	assert.Equal(t, 3, *e.BoxWins)
	require.NotNil(t, e.BoxPlaces)
	assert.Equal(t, 5, *e.BoxPlaces)
	assert.Equal(t, "led all the way", e.RaceComment)
	assert.Equal(t, "Good", e.TrackGoing)
}

func TestParseTimingResolutionPrefersExactDistance(t *testing.T) {
	// 528m is within the exact tolerance of the 530m race; 560m is only
	// similar and must lose to the exact observation.
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Distance 560m
Race Time 0:31.90
Distance 528m
Race Time 0:30.12
`
	races := newTestParser().Parse(doc)
	e := races[0].Entrants[0]

	require.NotNil(t, e.BestTimeSec)
	assert.InDelta(t, 30.12, *e.BestTimeSec, 1e-9)
	assert.Equal(t, []float64{30.12}, e.LastThreeSec)
}

func TestParseTimingFallsBackToSimilarDistance(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Distance 560m
Race Time 0:31.90
Distance 595m
Race Time 0:33.50
`
	races := newTestParser().Parse(doc)
	e := races[0].Entrants[0]

	// 560m is within the similar tolerance; 595m is too far from 530m.
	require.NotNil(t, e.BestTimeSec)
	assert.InDelta(t, 31.90, *e.BestTimeSec, 1e-9)
}

func TestParseTimingDropsImplausibleValues(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Distance 530m
Race Time 5:30.00
Distance 530m
Sec Time 45.80
`
	races := newTestParser().Parse(doc)
	e := races[0].Entrants[0]

	assert.Nil(t, e.BestTimeSec)
	assert.Nil(t, e.SectionalSec)
}

func TestParseTimingIgnoresObservationsWithoutDistance(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Race Time 0:30.12
`
	races := newTestParser().Parse(doc)
	e := races[0].Entrants[0]

	// A run time with no Distance line cannot be matched to today's trip.
	assert.Nil(t, e.BestTimeSec)
}

func TestParseSectionHeaderReattributesDetails(t *testing.T) {
	// Fast Lane's detail section appears after the second entrant's header;
	// the all-caps name line must move the cursor back to the first entrant.
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
2. 2213Moon Dancer 3b 30.1kg 2 M Jones 6 - 5 - 18 $9,800 2.1 21 90
FAST LANE
Distance 530m
Sec Time 5.31
MOON DANCER
Distance 530m
Sec Time 5.65
`
	races := newTestParser().Parse(doc)
	require.Len(t, races[0].Entrants, 2)

	first, second := races[0].Entrants[0], races[0].Entrants[1]
	require.NotNil(t, first.SectionalSec)
	assert.InDelta(t, 5.31, *first.SectionalSec, 1e-9)
	require.NotNil(t, second.SectionalSec)
	assert.InDelta(t, 5.65, *second.SectionalSec, 1e-9)
}

func TestParseSectionHeaderStopWordsRejected(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
2. 2213Moon Dancer 3b 30.1kg 2 M Jones 6 - 5 - 18 $9,800 2.1 21 90
TRACK RECORD
Distance 530m
Sec Time 5.31
`
	races := newTestParser().Parse(doc)

	// The stop-word line must not move the cursor; the sectional stays with
	// the open entrant.
	second := races[0].Entrants[1]
	require.NotNil(t, second.SectionalSec)
	assert.InDelta(t, 5.31, *second.SectionalSec, 1e-9)
	assert.Nil(t, races[0].Entrants[0].SectionalSec)
}

func TestParseMultipleRacesGroupEntrants(t *testing.T) {
	doc := `Race No 1 Oct 16 04:00PM Angle Park 530m
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
Race No 2 Oct 16 04:30PM Angle Park 595m
1. 3164Moon Dancer 3b 30.1kg 1 M Jones 6 - 5 - 18 $9,800 2.1 21 90
2. 2213Silver Arrow 2d 28.9kg 2 K Lee 2 - 3 - 11 $4,100 1.8 9 30
`
	races := newTestParser().Parse(doc)
	require.Len(t, races, 2)
	assert.Len(t, races[0].Entrants, 1)
	assert.Len(t, races[1].Entrants, 2)
	assert.Equal(t, 595, races[1].Entrants[0].Distance)
	assert.Equal(t, 2, races[1].Entrants[0].RaceNumber)
}

func TestParseJunkLinesIgnored(t *testing.T) {
	doc := `GREYHOUND RACING FORM GUIDE
page 3 of 12
Race No 1 Oct 16 04:00PM Angle Park 530m
*** some extraction noise ###
1. 41325Fast Lane 2d 29.5kg 1 J Smith 4 - 7 - 22 $12,340 1.2 14 62
`
	races := newTestParser().Parse(doc)
	require.Len(t, races, 1)
	require.Len(t, races[0].Entrants, 1)
}

func TestParseEmptyDocument(t *testing.T) {
	assert.Empty(t, newTestParser().Parse(""))
	assert.Empty(t, newTestParser().Parse("no recognizable lines here\nat all\n"))
}

func TestSplitAgeSex(t *testing.T) {
	tests := []struct {
		token string
		age   *int
		sex   string
	}{
		{"2d", intPtr(2), "M"},
		{"3b", intPtr(3), "F"},
		{"10d", intPtr(10), "M"},
		{"d", nil, "M"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		age, sex := splitAgeSex(tt.token)
		if tt.age == nil {
			assert.Nil(t, age, tt.token)
		} else {
			require.NotNil(t, age, tt.token)
			assert.Equal(t, *tt.age, *age, tt.token)
		}
		assert.Equal(t, tt.sex, sex, tt.token)
	}
}

func TestDegluedName(t *testing.T) {
	assert.Equal(t, "Fast Lane", degluedName("41325", "Fast Lane"))
	assert.Equal(t, "Fast Lane", degluedName("41325", "25Fast Lane"))
	assert.Equal(t, "Lane", degluedName("", "Lane"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "ONEILLS PRIDE", normalizeName("O'Neill's Pride"))
	assert.Equal(t, "BLUE MOON", normalizeName("blue-moon"))
	assert.Equal(t, "FAST LANE", normalizeName("  Fast   Lane "))
}

func TestMoneyToDecimal(t *testing.T) {
	d := moneyToDecimal("12,340")
	require.NotNil(t, d)
	assert.Equal(t, "12340", d.String())

	d = moneyToDecimal("1,234.50")
	require.NotNil(t, d)
	assert.Equal(t, "1234.5", d.String())

	assert.Nil(t, moneyToDecimal("n/a"))
}

func intPtr(v int) *int { return &v }
