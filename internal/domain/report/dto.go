package report

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// EMPLOYEES
// ========================================

type EmployeeListRequest struct {
	Search string `json:"search"`
}

func (r *EmployeeListRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Search) > 64 {
		errs = append(errs, validator.ValidationError{
			Field:   "search",
			Message: "search must be at most 64 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeResponse struct {
	EmpID        string `json:"emp_id"`
	CardNo       string `json:"card_no"`
	EmployeeName string `json:"employee_name"`
}

type EmployeesResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Count     int                `json:"count"`
}

// ========================================
// DASHBOARD
// ========================================

type DashboardSummary struct {
	TotalEmployees int    `json:"total_employees"`
	InCount        int    `json:"in_count"`
	OutCount       int    `json:"out_count"`
	UnknownCount   int    `json:"unknown_count"`
	GeneratedAt    string `json:"generated_at"`
	MappingInfo
}

type MappingResponse struct {
	MappingVariant  string `json:"mapping_variant"`
	SwapApplied     bool   `json:"swap_applied"`
	DetectorVariant string `json:"detector_variant"`
	AutoDetected    bool   `json:"auto_detected"`
	ManualOverride  bool   `json:"manual_override"`
	ComputedAt      string `json:"computed_at"`
}

// ========================================
// SHARED REPORT PARTS
// ========================================

// MappingInfo surfaces the polarity mapping a report was computed under.
type MappingInfo struct {
	MappingVariant string `json:"mapping_variant"`
	SwapApplied    bool   `json:"swap_applied"`
}

type Identity struct {
	EmpID        string  `json:"emp_id"`
	EmployeeName string  `json:"employee_name"`
	CardNo       string  `json:"card_no"`
	Department   *string `json:"department"`
}

// SegmentTotals is the time spent in the IN and OUT states over the period.
type SegmentTotals struct {
	TotalInMinutes  int             `json:"total_in_minutes"`
	TotalOutMinutes int             `json:"total_out_minutes"`
	TotalInHHMM     string          `json:"total_in_hhmm"`
	TotalOutHHMM    string          `json:"total_out_hhmm"`
	TotalInHours    decimal.Decimal `json:"total_in_hours"`
	TotalOutHours   decimal.Decimal `json:"total_out_hours"`
}

type DayRecordResponse struct {
	Date            string  `json:"date"`
	FirstIn         *string `json:"first_in"`
	LastOut         *string `json:"last_out"`
	DurationMinutes *int    `json:"duration_minutes"`
	DurationHHMM    *string `json:"duration_hhmm"`
	MissingPunch    bool    `json:"missing_punch"`
}

// ========================================
// DAILY REPORT
// ========================================

type DailyReportRequest struct {
	CardNo string `json:"card_no"`
	Date   string `json:"date"`

	day time.Time
}

func (r *DailyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCardNo(r.CardNo)...)

	day, ok := validator.ParseDay(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	r.day = day

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Day returns the parsed date. Valid only after Validate succeeds.
func (r *DailyReportRequest) Day() time.Time {
	return r.day
}

type DailyReport struct {
	Identity
	DayRecordResponse
	SegmentTotals
	TotalWorkMinutes *int `json:"total_work_minutes"`
	MappingInfo
}

// ========================================
// MONTHLY REPORT
// ========================================

type MonthlyReportRequest struct {
	CardNo string `json:"card_no"`
	Month  string `json:"month"`

	start, end time.Time
}

func (r *MonthlyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCardNo(r.CardNo)...)

	start, end, ok := validator.ParseMonth(r.Month)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}
	r.start, r.end = start, end

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns [first day of month, first day of next month).
func (r *MonthlyReportRequest) Period() (time.Time, time.Time) {
	return r.start, r.end
}

type MonthlyReport struct {
	Identity
	Month                 string              `json:"month"`
	Records               []DayRecordResponse `json:"records"`
	TotalDays             int                 `json:"total_days"`
	MissingPunchDays      int                 `json:"missing_punch_days"`
	TotalMinutes          int                 `json:"total_minutes"`
	TotalDurationHHMM     string              `json:"total_duration_hhmm"`
	TotalDurationReadable string              `json:"total_duration_readable"`
	TotalHours            decimal.Decimal     `json:"total_hours"`
	AverageMinutesPerDay  *int                `json:"average_minutes_per_day"`
	AverageDurationHHMM   *string             `json:"average_duration_hhmm"`
	TotalWorkMinutes      int                 `json:"total_work_minutes"`
	SegmentTotals
	MappingInfo
}

// ========================================
// YEARLY REPORT
// ========================================

type YearlyReportRequest struct {
	CardNo string `json:"card_no"`
	Year   string `json:"year"`

	start, end time.Time
}

func (r *YearlyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCardNo(r.CardNo)...)

	start, end, ok := validator.ParseYear(r.Year)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be numeric YYYY between 1900 and 2100",
		})
	}
	r.start, r.end = start, end

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns [Jan 1, Jan 1 of next year).
func (r *YearlyReportRequest) Period() (time.Time, time.Time) {
	return r.start, r.end
}

type MonthSummary struct {
	Month                 string          `json:"month"`
	WorkedDays            int             `json:"worked_days"`
	MissingPunchDays      int             `json:"missing_punch_days"`
	TotalMinutes          int             `json:"total_minutes"`
	TotalHours            decimal.Decimal `json:"total_hours"`
	AverageMinutesPerDay  *int            `json:"average_minutes_per_day"`
	AverageDurationHHMM   *string         `json:"average_duration_hhmm"`
	TotalDurationHHMM     string          `json:"total_duration_hhmm"`
	TotalDurationReadable string          `json:"total_duration_readable"`
}

type YearlyReport struct {
	Identity
	Year                  string          `json:"year"`
	Months                []MonthSummary  `json:"months"`
	TotalWorkedDays       int             `json:"total_worked_days"`
	MissingPunchDays      int             `json:"missing_punch_days"`
	TotalMinutes          int             `json:"total_minutes"`
	TotalHours            decimal.Decimal `json:"total_hours"`
	TotalDurationHHMM     string          `json:"total_duration_hhmm"`
	TotalDurationReadable string          `json:"total_duration_readable"`
	TotalWorkMinutes      int             `json:"total_work_minutes"`
	SegmentTotals
	MappingInfo
}

func validateCardNo(cardNo string) validator.ValidationErrors {
	if validator.IsEmpty(cardNo) {
		return validator.ValidationErrors{{Field: "card_no", Message: "card_no is required"}}
	}
	if !validator.IsValidCardNo(cardNo) {
		return validator.ValidationErrors{{Field: "card_no", Message: "card_no contains invalid characters"}}
	}
	return nil
}
