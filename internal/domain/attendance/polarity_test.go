package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleAt(hour int, flag Flag, n int) []Event {
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, Event{
			Time: time.Date(2024, 3, 1+i%28, hour, i%60, 0, 0, time.UTC),
			Flag: flag,
		})
	}
	return events
}

func TestDetectSwap_ReversedInstallation(t *testing.T) {
	// IN-flagged swipes at 05:00, OUT-flagged swipes at 17:00
	sample := append(sampleAt(5, FlagIn, 40), sampleAt(17, FlagOut, 40)...)

	decision := DetectSwap(sample, DefaultHeuristicConfig())

	assert.True(t, decision.Enabled)
	assert.True(t, decision.Swapped)
	assert.Equal(t, 80, decision.Resolved)
	assert.InDelta(t, 1.0, decision.InRatio, 1e-9)
	assert.InDelta(t, 1.0, decision.OutRatio, 1e-9)
}

func TestDetectSwap_TooFewResolvedEvents(t *testing.T) {
	sample := append(sampleAt(5, FlagIn, 20), sampleAt(17, FlagOut, 20)...)
	sample = append(sample, sampleAt(9, FlagUnknown, 100)...)

	decision := DetectSwap(sample, DefaultHeuristicConfig())

	assert.False(t, decision.Enabled)
	assert.False(t, decision.Swapped)
	assert.Equal(t, 40, decision.Resolved)
}

func TestDetectSwap_OnlyOneFlagPresent(t *testing.T) {
	decision := DetectSwap(sampleAt(5, FlagIn, 100), DefaultHeuristicConfig())

	assert.True(t, decision.Enabled)
	assert.False(t, decision.Swapped)
}

func TestDetectSwap_NormalInstallation(t *testing.T) {
	sample := append(sampleAt(8, FlagIn, 40), sampleAt(17, FlagOut, 40)...)

	decision := DetectSwap(sample, DefaultHeuristicConfig())

	assert.True(t, decision.Enabled)
	assert.False(t, decision.Swapped)
	assert.InDelta(t, 0.0, decision.InRatio, 1e-9)
}

func TestDetectSwap_RatioMustExceedThreshold(t *testing.T) {
	// Exactly 60% early INs is not enough
	sample := append(sampleAt(5, FlagIn, 30), sampleAt(9, FlagIn, 20)...)
	sample = append(sample, sampleAt(17, FlagOut, 50)...)

	decision := DetectSwap(sample, DefaultHeuristicConfig())

	assert.InDelta(t, 0.6, decision.InRatio, 1e-9)
	assert.False(t, decision.Swapped)
}

func TestHourRange_Contains(t *testing.T) {
	r := HourRange{From: 0, To: 6}
	assert.True(t, r.Contains(0))
	assert.True(t, r.Contains(6))
	assert.False(t, r.Contains(7))
}

func TestDetectSwap_SyntheticSample(t *testing.T) {
	var sample []Event
	sample = append(sample, sampleAt(3, FlagIn, 70)...)
	sample = append(sample, sampleAt(9, FlagIn, 30)...)
	sample = append(sample, sampleAt(18, FlagOut, 70)...)
	sample = append(sample, sampleAt(9, FlagOut, 30)...)
	assert.Len(t, sample, 200)

	decision := DetectSwap(sample, DefaultHeuristicConfig())
	assert.True(t, decision.Swapped)

	reversed := make([]Event, len(sample))
	for i, ev := range sample {
		reversed[i] = Event{Time: ev.Time, Flag: ev.Flag.Swap()}
	}
	decision = DetectSwap(reversed, DefaultHeuristicConfig())
	assert.False(t, decision.Swapped)
}
