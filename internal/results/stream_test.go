package results

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRaceResultValid(t *testing.T) {
	second := 4
	winTime := 29.81
	result, err := toRaceResult(streamMessage{
		Op:         "result",
		Track:      "Wentworth Park",
		RaceNumber: 5,
		WinningBox: 2,
		SecondBox:  &second,
		WinTimeSec: &winTime,
		SettledAt:  "2026-08-29T19:42:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "Wentworth Park", result.Track)
	assert.Equal(t, 5, result.RaceNumber)
	assert.Equal(t, 2, result.WinningBox)
	require.NotNil(t, result.SecondBox)
	assert.Equal(t, 4, *result.SecondBox)
	assert.Equal(t, time.Date(2026, 8, 29, 19, 42, 0, 0, time.UTC), result.SettledAt)
}

func TestToRaceResultMissingIdentity(t *testing.T) {
	_, err := toRaceResult(streamMessage{Op: "result", WinningBox: 1})
	assert.Error(t, err)

	_, err = toRaceResult(streamMessage{Op: "result", Track: "Sandown", WinningBox: 1})
	assert.Error(t, err)
}

func TestToRaceResultBoxOutOfRange(t *testing.T) {
	_, err := toRaceResult(streamMessage{Op: "result", Track: "Sandown", RaceNumber: 1, WinningBox: 9})
	assert.Error(t, err)

	_, err = toRaceResult(streamMessage{Op: "result", Track: "Sandown", RaceNumber: 1, WinningBox: 0})
	assert.Error(t, err)
}

func TestToRaceResultBadTimestampFallsBackToNow(t *testing.T) {
	before := time.Now()
	result, err := toRaceResult(streamMessage{
		Op:         "result",
		Track:      "Sandown",
		RaceNumber: 3,
		WinningBox: 1,
		SettledAt:  "yesterday",
	})
	require.NoError(t, err)
	assert.False(t, result.SettledAt.Before(before))
}

func TestStreamClientNotConnected(t *testing.T) {
	client := NewStreamClient("ws://localhost:9999/stream", "key", nil)

	assert.False(t, client.IsConnected())
	assert.Error(t, client.Subscribe(context.Background()))
	assert.NoError(t, client.Close())
}
