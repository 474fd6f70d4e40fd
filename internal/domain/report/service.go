package report

import "context"

// ReportService is the reporting surface of the reconciliation engine.
type ReportService interface {
	// ListEmployees returns active cardholders, optionally filtered by name or card
	ListEmployees(ctx context.Context, req EmployeeListRequest) (EmployeesResponse, error)

	// GetDashboardSummary counts active employees by the state of their latest swipe
	GetDashboardSummary(ctx context.Context) (DashboardSummary, error)

	// GetMappingState returns the polarity mapping currently in effect
	GetMappingState(ctx context.Context) (MappingResponse, error)

	// GetDailyReport builds the attendance record and state totals of one day
	GetDailyReport(ctx context.Context, req DailyReportRequest) (DailyReport, error)

	// GetMonthlyReport builds the per-day records and totals of one month
	GetMonthlyReport(ctx context.Context, req MonthlyReportRequest) (MonthlyReport, error)

	// GetYearlyReport builds per-month summaries and totals of one year
	GetYearlyReport(ctx context.Context, req YearlyReportRequest) (YearlyReport, error)
}
