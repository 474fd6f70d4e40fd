package attendance

// HourRange is an inclusive hour-of-day window.
type HourRange struct {
	From int
	To   int
}

func (r HourRange) Contains(hour int) bool {
	return hour >= r.From && hour <= r.To
}

// HeuristicConfig tunes polarity detection. The defaults fit a day-shift
// installation: entries before 07:00 and exits in the afternoon or evening.
type HeuristicConfig struct {
	SampleSize  int
	MinResolved int
	InRatio     float64
	OutRatio    float64
	InHours     HourRange
	OutHours    HourRange
}

func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		SampleSize:  200,
		MinResolved: 50,
		InRatio:     0.60,
		OutRatio:    0.60,
		InHours:     HourRange{From: 0, To: 6},
		OutHours:    HourRange{From: 12, To: 23},
	}
}

type SwapDecision struct {
	Swapped  bool
	Enabled  bool
	Resolved int
	InRatio  float64
	OutRatio float64
}

// DetectSwap decides whether the sample shows the IN/OUT flag reversed: most
// IN-flagged events fall in the early-morning window and most OUT-flagged
// events fall in the afternoon window.
func DetectSwap(sample []Event, cfg HeuristicConfig) SwapDecision {
	var decision SwapDecision
	var inTotal, inWindow, outTotal, outWindow int

	for _, ev := range sample {
		if !ev.Flag.Resolved() {
			continue
		}
		decision.Resolved++

		hour := ev.Time.Hour()
		switch ev.Flag {
		case FlagIn:
			inTotal++
			if cfg.InHours.Contains(hour) {
				inWindow++
			}
		case FlagOut:
			outTotal++
			if cfg.OutHours.Contains(hour) {
				outWindow++
			}
		}
	}

	if decision.Resolved < cfg.MinResolved {
		return decision
	}
	decision.Enabled = true

	if inTotal == 0 || outTotal == 0 {
		return decision
	}

	decision.InRatio = float64(inWindow) / float64(inTotal)
	decision.OutRatio = float64(outWindow) / float64(outTotal)
	decision.Swapped = decision.InRatio > cfg.InRatio && decision.OutRatio > cfg.OutRatio
	return decision
}
