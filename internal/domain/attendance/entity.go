package attendance

import (
	"time"
)

// Flag is the tri-state classification of a swipe event.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagIn
	FlagOut
)

func (f Flag) String() string {
	switch f {
	case FlagIn:
		return "IN"
	case FlagOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Resolved reports whether the flag is IN or OUT.
func (f Flag) Resolved() bool {
	return f == FlagIn || f == FlagOut
}

// Swap inverts IN and OUT. UNKNOWN stays UNKNOWN.
func (f Flag) Swap() Flag {
	switch f {
	case FlagIn:
		return FlagOut
	case FlagOut:
		return FlagIn
	default:
		return FlagUnknown
	}
}

// Effective returns the flag after polarity correction.
func (f Flag) Effective(swapApplied bool) Flag {
	if swapApplied {
		return f.Swap()
	}
	return f
}

type Event struct {
	Time time.Time
	Flag Flag
}

// Employee is the identity of a cardholder as read from the employee table.
type Employee struct {
	EmpID        string
	CardNo       string
	EmployeeName string
	Department   *string
}

type DayRecord struct {
	Date            time.Time
	FirstIn         *time.Time
	LastOut         *time.Time
	DurationMinutes *int
	MissingPunch    bool
}

type DayTotals struct {
	InMinutes  int
	OutMinutes int
}

type PeriodTotals struct {
	TotalInMinutes  int
	TotalOutMinutes int
	PerDay          map[string]DayTotals
}

func EmptyPeriodTotals() PeriodTotals {
	return PeriodTotals{PerDay: map[string]DayTotals{}}
}

// Mapping variants reported to consumers.
const (
	MappingNormal      = "normal"
	MappingSwapped     = "swapped"
	MappingUnsupported = "unsupported"
)

type MappingState struct {
	Variant         string
	SwapApplied     bool
	DetectorVariant VariantKind
	AutoDetected    bool
	ManualOverride  bool
	ComputedAt      time.Time
}

// DashboardCounts is the number of active employees by the state of their latest event.
type DashboardCounts struct {
	TotalEmployees int
	InCount        int
	OutCount       int
	UnknownCount   int
}

// DayKey formats t as the YYYY-MM-DD key used for per-day buckets.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
