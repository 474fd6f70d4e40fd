package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// DayResult is the outcome of evaluating one calendar day.
type DayResult struct {
	Record attendance.DayRecord
	// HasEvents is false when the day had no IN or OUT events of its own.
	// Such days are left out of period listings.
	HasEvents bool
}

// ComputeDay derives first-in, last-out and missing-punch status for the day
// starting at dayStart. events must cover [dayStart, dayStart+24h+cutoff).
func ComputeDay(dayStart time.Time, events []attendance.Event, swapApplied bool, cutoff time.Duration) DayResult {
	return computeDay(dayStart, events, swapApplied, cutoff, time.Time{})
}

// computeDay ignores in-day OUT events at or before consumedUntil: they were
// already paired into the previous day's overnight shift. IN events still
// open the day's own shift.
func computeDay(dayStart time.Time, events []attendance.Event, swapApplied bool, cutoff time.Duration, consumedUntil time.Time) DayResult {
	dayEnd := dayStart.AddDate(0, 0, 1)
	overnightEnd := dayEnd.Add(cutoff)

	var firstIn, lastInDayOut *time.Time
	hasEvents := false

	for _, ev := range events {
		if ev.Time.Before(dayStart) || !ev.Time.Before(dayEnd) {
			continue
		}
		flag := ev.Flag.Effective(swapApplied)
		if flag == attendance.FlagOut && !consumedUntil.IsZero() && !ev.Time.After(consumedUntil) {
			continue
		}

		switch flag {
		case attendance.FlagIn:
			hasEvents = true
			if firstIn == nil || ev.Time.Before(*firstIn) {
				t := ev.Time
				firstIn = &t
			}
		case attendance.FlagOut:
			hasEvents = true
			if lastInDayOut == nil || ev.Time.After(*lastInDayOut) {
				t := ev.Time
				lastInDayOut = &t
			}
		}
	}

	var lastOut *time.Time
	if firstIn != nil {
		lastOut = latestOut(events, swapApplied, *firstIn, overnightEnd, false)

		// An out sorted before the chosen in: keep only outs strictly after it.
		if lastOut != nil && lastOut.Before(*firstIn) {
			lastOut = latestOut(events, swapApplied, *firstIn, overnightEnd, true)
		}
	} else {
		// OUT-only day, reported as a missing punch.
		lastOut = lastInDayOut
	}

	duration := durationMinutes(firstIn, lastOut)
	if firstIn != nil && lastOut != nil && duration == nil {
		lastOut = nil
	}

	return DayResult{
		Record: attendance.DayRecord{
			Date:            dayStart,
			FirstIn:         firstIn,
			LastOut:         lastOut,
			DurationMinutes: duration,
			MissingPunch:    (firstIn == nil) != (lastOut == nil),
		},
		HasEvents: hasEvents,
	}
}

// latestOut returns the latest OUT event in [from, until), or (from, until)
// when strict is set.
func latestOut(events []attendance.Event, swapApplied bool, from, until time.Time, strict bool) *time.Time {
	var found *time.Time
	for _, ev := range events {
		if ev.Time.Before(from) || !ev.Time.Before(until) {
			continue
		}
		if strict && ev.Time.Equal(from) {
			continue
		}
		if ev.Flag.Effective(swapApplied) != attendance.FlagOut {
			continue
		}
		if found == nil || ev.Time.After(*found) {
			t := ev.Time
			found = &t
		}
	}
	return found
}

func durationMinutes(firstIn, lastOut *time.Time) *int {
	if firstIn == nil || lastOut == nil || lastOut.Before(*firstIn) {
		return nil
	}
	minutes := int(lastOut.Sub(*firstIn) / time.Minute)
	return &minutes
}

// DayRecordsLookback is how far before a period BuildDayRecords needs events.
const DayRecordsLookback = 24 * time.Hour

// EventsEnd returns the end of the event range BuildDayRecords needs for a
// period ending at end.
func EventsEnd(end time.Time, cutoff time.Duration) time.Time {
	return end.AddDate(0, 0, 1).Add(cutoff)
}

// BuildDayRecords evaluates every calendar day in [start, end) and returns the
// records of days that had events. events should cover
// [start-DayRecordsLookback, EventsEnd(end, cutoff)); the day before start is
// evaluated only to know which early events its overnight shift consumed.
func BuildDayRecords(start, end time.Time, events []attendance.Event, swapApplied bool, cutoff time.Duration) []attendance.DayRecord {
	sorted := make([]attendance.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	records := make([]attendance.DayRecord, 0)

	prev := start.AddDate(0, 0, -1)
	seed := computeDay(prev, dayWindow(sorted, prev, cutoff), swapApplied, cutoff, time.Time{})
	consumed := carryOver(seed)

	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		result := computeDay(day, dayWindow(sorted, day, cutoff), swapApplied, cutoff, consumed)
		if result.HasEvents {
			records = append(records, result.Record)
		}
		consumed = carryOver(result)
	}

	return records
}

// BuildDayRecord is BuildDayRecords for one day. A day without events yields
// an empty record rather than nothing.
func BuildDayRecord(day time.Time, events []attendance.Event, swapApplied bool, cutoff time.Duration) attendance.DayRecord {
	records := BuildDayRecords(day, day.AddDate(0, 0, 1), events, swapApplied, cutoff)
	if len(records) == 0 {
		return attendance.DayRecord{Date: day}
	}
	return records[0]
}

// dayWindow slices the sorted events to [day, day+24h+cutoff).
func dayWindow(sorted []attendance.Event, day time.Time, cutoff time.Duration) []attendance.Event {
	until := day.AddDate(0, 0, 1).Add(cutoff)
	lo := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Time.Before(day) })
	hi := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Time.Before(until) })
	return sorted[lo:hi]
}

// carryOver returns the last-out of a paired overnight shift that ended after
// midnight, or the zero time.
func carryOver(result DayResult) time.Time {
	rec := result.Record
	if rec.FirstIn == nil || rec.LastOut == nil {
		return time.Time{}
	}
	if rec.LastOut.Before(rec.Date.AddDate(0, 0, 1)) {
		return time.Time{}
	}
	return *rec.LastOut
}
