package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// AccumulateSegments attributes the time spent in the IN and OUT states during
// [start, end) to calendar days.
//
// anchor is the latest resolved event before start and seeds the initial
// state. events are the events of the window; any outside it are ignored.
// closing is the first resolved event at or after end whose flag differs from
// the last known one: it closes the segment still open at end. A segment that
// no later transition closes is never counted.
func AccumulateSegments(start, end time.Time, anchor *attendance.Event, events []attendance.Event, closing *attendance.Event, swapApplied bool) attendance.PeriodTotals {
	totals := attendance.EmptyPeriodTotals()
	if !end.After(start) {
		return totals
	}

	timeline := make([]attendance.Event, 0, len(events)+2)
	if anchor != nil && anchor.Time.Before(start) {
		timeline = append(timeline, *anchor)
	}
	for _, ev := range events {
		if ev.Time.Before(start) || !ev.Time.Before(end) {
			continue
		}
		timeline = append(timeline, ev)
	}
	if closing != nil && !closing.Time.Before(end) {
		timeline = append(timeline, *closing)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Time.Before(timeline[j].Time)
	})

	state := attendance.FlagUnknown
	var segmentStart time.Time

	for _, ev := range timeline {
		next := ev.Flag.Effective(swapApplied)
		if !next.Resolved() {
			continue
		}
		if state == attendance.FlagUnknown {
			state = next
			segmentStart = ev.Time
			continue
		}
		if next == state {
			continue
		}

		addSegment(&totals, state, segmentStart, ev.Time, start, end)
		state = next
		segmentStart = ev.Time
	}

	return totals
}

// LastResolvedFlag returns the raw flag of the latest resolved event among the
// anchor and the window events, or FlagUnknown.
func LastResolvedFlag(anchor *attendance.Event, events []attendance.Event) attendance.Flag {
	last := attendance.FlagUnknown
	var lastTime time.Time
	if anchor != nil && anchor.Flag.Resolved() {
		last = anchor.Flag
		lastTime = anchor.Time
	}
	for _, ev := range events {
		if !ev.Flag.Resolved() {
			continue
		}
		if last == attendance.FlagUnknown || !ev.Time.Before(lastTime) {
			last = ev.Flag
			lastTime = ev.Time
		}
	}
	return last
}

// addSegment clips [from, to) to the window and splits it at each midnight.
// Minutes are counted on the minute grid so that adjacent pieces always add
// up to the minutes of the whole.
func addSegment(totals *attendance.PeriodTotals, state attendance.Flag, from, to, windowStart, windowEnd time.Time) {
	cursor := from
	if cursor.Before(windowStart) {
		cursor = windowStart
	}
	stop := to
	if stop.After(windowEnd) {
		stop = windowEnd
	}

	for cursor.Before(stop) {
		pieceEnd := attendance.StartOfDay(cursor).AddDate(0, 0, 1)
		if pieceEnd.After(stop) {
			pieceEnd = stop
		}

		minutes := int(pieceEnd.Truncate(time.Minute).Sub(cursor.Truncate(time.Minute)) / time.Minute)
		if minutes > 0 {
			key := attendance.DayKey(cursor)
			bucket := totals.PerDay[key]
			switch state {
			case attendance.FlagIn:
				bucket.InMinutes += minutes
				totals.TotalInMinutes += minutes
			case attendance.FlagOut:
				bucket.OutMinutes += minutes
				totals.TotalOutMinutes += minutes
			}
			totals.PerDay[key] = bucket
		}
		cursor = pieceEnd
	}
}
