package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type ReportHandler interface {
	// Employees
	ListEmployees(w http.ResponseWriter, r *http.Request)

	// Dashboard
	GetDashboardSummary(w http.ResponseWriter, r *http.Request)
	GetMappingState(w http.ResponseWriter, r *http.Request)

	// Attendance reports
	GetDailyReport(w http.ResponseWriter, r *http.Request)
	GetMonthlyReport(w http.ResponseWriter, r *http.Request)
	GetYearlyReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// ListEmployees handles GET /employees?search=
func (h *reportHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	req := report.EmployeeListRequest{
		Search: r.URL.Query().Get("search"),
	}

	result, err := h.reportService.ListEmployees(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDashboardSummary handles GET /dashboard/summary
func (h *reportHandlerImpl) GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetDashboardSummary(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMappingState handles GET /mapping
func (h *reportHandlerImpl) GetMappingState(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetMappingState(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDailyReport handles GET /reports/daily?card_no=&date=YYYY-MM-DD
func (h *reportHandlerImpl) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := report.DailyReportRequest{
		CardNo: query.Get("card_no"),
		Date:   query.Get("date"),
	}

	result, err := h.reportService.GetDailyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMonthlyReport handles GET /reports/monthly?card_no=&month=YYYY-MM
func (h *reportHandlerImpl) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := report.MonthlyReportRequest{
		CardNo: query.Get("card_no"),
		Month:  query.Get("month"),
	}

	result, err := h.reportService.GetMonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetYearlyReport handles GET /reports/yearly?card_no=&year=YYYY
func (h *reportHandlerImpl) GetYearlyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := report.YearlyReportRequest{
		CardNo: query.Get("card_no"),
		Year:   query.Get("year"),
	}

	result, err := h.reportService.GetYearlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
