package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Numeric validation
var numericRegex = regexp.MustCompile(`^[0-9]+$`)

func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// Card numbers are printable and short; anything else never matches a row.
var cardNoRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func IsValidCardNo(cardNo string) bool {
	return cardNoRegex.MatchString(strings.TrimSpace(cardNo))
}

// Accepted report years.
const (
	MinYear = 1900
	MaxYear = 2100
)

// ParseDay parses a "YYYY-MM-DD" date. The result is midnight UTC.
func ParseDay(value string) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// ParseMonth parses "YYYY-MM" and returns [first day, first day of next month).
func ParseMonth(value string) (start, end time.Time, ok bool) {
	start, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 1, 0), true
}

// ParseYear parses a numeric year within [MinYear, MaxYear] and returns
// [Jan 1, Jan 1 of next year).
func ParseYear(value string) (start, end time.Time, ok bool) {
	text := strings.TrimSpace(value)
	if !IsNumeric(text) {
		return time.Time{}, time.Time{}, false
	}
	year, err := strconv.Atoi(text)
	if err != nil || year < MinYear || year > MaxYear {
		return time.Time{}, time.Time{}, false
	}
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0), true
}
