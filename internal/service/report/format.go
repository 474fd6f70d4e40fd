package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/shopspring/decimal"
)

const dateTimeLayout = "2006-01-02 15:04:05"

func formatDateTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateTimeLayout)
	return &s
}

// minutesToHHMM renders minutes as HH:MM; hours may exceed 24.
func minutesToHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func minutesToHHMMPtr(minutes *int) *string {
	if minutes == nil || *minutes < 0 {
		return nil
	}
	s := minutesToHHMM(*minutes)
	return &s
}

// formatDurationReadable renders "7 Hrs 05 Mins", or "45 Mins" under an hour.
func formatDurationReadable(minutes int) string {
	hrs := minutes / 60
	mins := minutes % 60
	if hrs <= 0 {
		return fmt.Sprintf("%02d Mins", mins)
	}
	return fmt.Sprintf("%d Hrs %02d Mins", hrs, mins)
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

func toDayRecordResponse(rec attendance.DayRecord) report.DayRecordResponse {
	return report.DayRecordResponse{
		Date:            attendance.DayKey(rec.Date),
		FirstIn:         formatDateTime(rec.FirstIn),
		LastOut:         formatDateTime(rec.LastOut),
		DurationMinutes: rec.DurationMinutes,
		DurationHHMM:    minutesToHHMMPtr(rec.DurationMinutes),
		MissingPunch:    rec.MissingPunch,
	}
}

func toSegmentTotals(totals attendance.PeriodTotals) report.SegmentTotals {
	return report.SegmentTotals{
		TotalInMinutes:  totals.TotalInMinutes,
		TotalOutMinutes: totals.TotalOutMinutes,
		TotalInHHMM:     minutesToHHMM(totals.TotalInMinutes),
		TotalOutHHMM:    minutesToHHMM(totals.TotalOutMinutes),
		TotalInHours:    minutesToHours(totals.TotalInMinutes),
		TotalOutHours:   minutesToHours(totals.TotalOutMinutes),
	}
}

func toIdentity(emp attendance.Employee) report.Identity {
	return report.Identity{
		EmpID:        emp.EmpID,
		EmployeeName: emp.EmployeeName,
		CardNo:       emp.CardNo,
		Department:   emp.Department,
	}
}

func toMappingInfo(state attendance.MappingState) report.MappingInfo {
	return report.MappingInfo{
		MappingVariant: state.Variant,
		SwapApplied:    state.SwapApplied,
	}
}
