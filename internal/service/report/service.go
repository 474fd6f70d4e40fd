package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
)

// MaxEmployeeResults caps ListEmployees.
const MaxEmployeeResults = 200

// Config holds the report knobs.
type Config struct {
	// ShiftOutCutoff is how far past midnight a last-out still belongs to the
	// previous day's shift.
	ShiftOutCutoff time.Duration
}

type ReportServiceImpl struct {
	schemas      attendance.SchemaProvider
	eventRepo    attendance.EventRepository
	employeeRepo attendance.EmployeeRepository
	mapping      attendance.MappingService
	snapshot     attendance.SnapshotReader
	cfg          Config
	now          func() time.Time
}

type Option func(*ReportServiceImpl)

// WithSnapshot runs the reads of each report inside one upstream snapshot.
func WithSnapshot(snapshot attendance.SnapshotReader) Option {
	return func(s *ReportServiceImpl) {
		s.snapshot = snapshot
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReportServiceImpl) {
		s.now = now
	}
}

func NewReportService(
	schemas attendance.SchemaProvider,
	eventRepo attendance.EventRepository,
	employeeRepo attendance.EmployeeRepository,
	mapping attendance.MappingService,
	cfg Config,
	opts ...Option,
) report.ReportService {
	s := &ReportServiceImpl{
		schemas:      schemas,
		eventRepo:    eventRepo,
		employeeRepo: employeeRepo,
		mapping:      mapping,
		cfg:          cfg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// reportScope is what every report is computed under. One variant and one
// mapping hold for the whole computation.
type reportScope struct {
	schema  attendance.SchemaDescriptor
	variant attendance.EventVariant
	mapping attendance.MappingState
}

func (sc reportScope) canReadEvents() bool {
	return sc.variant.Supported() && sc.schema.HasEventColumns()
}

func (s *ReportServiceImpl) scope(ctx context.Context) (reportScope, error) {
	schema, err := s.schemas.Schema(ctx)
	if err != nil {
		return reportScope{}, fmt.Errorf("failed to resolve schema: %w", err)
	}

	variant := attendance.DetectVariant(schema)
	if !variant.Supported() {
		slog.Warn("Event variant unsupported, reporting zeroed totals",
			"error", attendance.ErrUnsupportedEventVariant,
			"event_columns", schema.EventColumns.Names(),
		)
	}

	mapping, err := s.mapping.State(ctx, schema, variant)
	if err != nil {
		return reportScope{}, fmt.Errorf("failed to get mapping state: %w", err)
	}

	return reportScope{schema: schema, variant: variant, mapping: mapping}, nil
}

func (s *ReportServiceImpl) read(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.snapshot == nil {
		return fn(ctx)
	}
	return s.snapshot.ReadSnapshot(ctx, fn)
}

// periodData is the raw material of a period report.
type periodData struct {
	employee attendance.Employee
	records  []attendance.DayRecord
	totals   attendance.PeriodTotals
}

// loadPeriod reads identity and events for [start, end) and derives the day
// records and segment totals.
func (s *ReportServiceImpl) loadPeriod(ctx context.Context, sc reportScope, cardNo string, start, end time.Time) (periodData, error) {
	data := periodData{
		records: []attendance.DayRecord{},
		totals:  attendance.EmptyPeriodTotals(),
	}

	err := s.read(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByCardNo(ctx, sc.schema, cardNo)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}
		data.employee = emp

		if !sc.canReadEvents() {
			return nil
		}

		swap := sc.mapping.SwapApplied
		cutoff := s.cfg.ShiftOutCutoff

		events, err := s.eventRepo.ListEvents(ctx, sc.schema, sc.variant, cardNo,
			start.Add(-attendanceService.DayRecordsLookback),
			attendanceService.EventsEnd(end, cutoff),
		)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		data.records = attendanceService.BuildDayRecords(start, end, events, swap, cutoff)

		anchor, err := s.eventRepo.LastResolvedBefore(ctx, sc.schema, sc.variant, cardNo, start)
		if err != nil {
			return fmt.Errorf("failed to get anchor event: %w", err)
		}

		windowEvents := eventsWithin(events, start, end)

		var closing *attendance.Event
		if last := attendanceService.LastResolvedFlag(anchor, windowEvents); last.Resolved() {
			closing, err = s.eventRepo.FirstFlagChangeFrom(ctx, sc.schema, sc.variant, cardNo, end, last)
			if err != nil {
				return fmt.Errorf("failed to get closing event: %w", err)
			}
		}

		data.totals = attendanceService.AccumulateSegments(start, end, anchor, windowEvents, closing, swap)
		return nil
	})
	if err != nil {
		return periodData{}, err
	}

	return data, nil
}

func eventsWithin(events []attendance.Event, start, end time.Time) []attendance.Event {
	within := make([]attendance.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Time.Before(start) && ev.Time.Before(end) {
			within = append(within, ev)
		}
	}
	return within
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", attendance.ErrMalformedInput, err)
}

func (s *ReportServiceImpl) ListEmployees(ctx context.Context, req report.EmployeeListRequest) (report.EmployeesResponse, error) {
	if err := req.Validate(); err != nil {
		return report.EmployeesResponse{}, malformed(err)
	}

	schema, err := s.schemas.Schema(ctx)
	if err != nil {
		return report.EmployeesResponse{}, fmt.Errorf("failed to resolve schema: %w", err)
	}

	employees, err := s.employeeRepo.List(ctx, schema, req.Search, MaxEmployeeResults)
	if err != nil {
		return report.EmployeesResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	resp := report.EmployeesResponse{
		Employees: make([]report.EmployeeResponse, 0, len(employees)),
	}
	for _, emp := range employees {
		resp.Employees = append(resp.Employees, report.EmployeeResponse{
			EmpID:        emp.EmpID,
			CardNo:       emp.CardNo,
			EmployeeName: emp.EmployeeName,
		})
	}
	resp.Count = len(resp.Employees)

	return resp, nil
}

func (s *ReportServiceImpl) GetDashboardSummary(ctx context.Context) (report.DashboardSummary, error) {
	sc, err := s.scope(ctx)
	if err != nil {
		return report.DashboardSummary{}, err
	}

	var counts attendance.DashboardCounts
	err = s.read(ctx, func(ctx context.Context) error {
		total, err := s.employeeRepo.CountActive(ctx, sc.schema)
		if err != nil {
			return fmt.Errorf("failed to count employees: %w", err)
		}
		counts.TotalEmployees = total

		if !sc.canReadEvents() {
			return nil
		}

		flags, err := s.employeeRepo.LatestFlags(ctx, sc.schema, sc.variant)
		if err != nil {
			return fmt.Errorf("failed to get latest flags: %w", err)
		}
		for _, flag := range flags {
			switch flag.Effective(sc.mapping.SwapApplied) {
			case attendance.FlagIn:
				counts.InCount++
			case attendance.FlagOut:
				counts.OutCount++
			}
		}
		return nil
	})
	if err != nil {
		return report.DashboardSummary{}, err
	}

	counts.UnknownCount = max(counts.TotalEmployees-counts.InCount-counts.OutCount, 0)

	return report.DashboardSummary{
		TotalEmployees: counts.TotalEmployees,
		InCount:        counts.InCount,
		OutCount:       counts.OutCount,
		UnknownCount:   counts.UnknownCount,
		GeneratedAt:    s.now().Format(dateTimeLayout),
		MappingInfo:    toMappingInfo(sc.mapping),
	}, nil
}

func (s *ReportServiceImpl) GetMappingState(ctx context.Context) (report.MappingResponse, error) {
	sc, err := s.scope(ctx)
	if err != nil {
		return report.MappingResponse{}, err
	}

	return report.MappingResponse{
		MappingVariant:  sc.mapping.Variant,
		SwapApplied:     sc.mapping.SwapApplied,
		DetectorVariant: string(sc.mapping.DetectorVariant),
		AutoDetected:    sc.mapping.AutoDetected,
		ManualOverride:  sc.mapping.ManualOverride,
		ComputedAt:      sc.mapping.ComputedAt.Format(time.RFC3339),
	}, nil
}

func (s *ReportServiceImpl) GetDailyReport(ctx context.Context, req report.DailyReportRequest) (report.DailyReport, error) {
	if err := req.Validate(); err != nil {
		return report.DailyReport{}, malformed(err)
	}
	cardNo := strings.TrimSpace(req.CardNo)
	day := req.Day()

	sc, err := s.scope(ctx)
	if err != nil {
		return report.DailyReport{}, err
	}

	data, err := s.loadPeriod(ctx, sc, cardNo, day, day.AddDate(0, 0, 1))
	if err != nil {
		return report.DailyReport{}, err
	}

	record := attendance.DayRecord{Date: day}
	if len(data.records) > 0 {
		record = data.records[0]
	}

	return report.DailyReport{
		Identity:          toIdentity(data.employee),
		DayRecordResponse: toDayRecordResponse(record),
		SegmentTotals:     toSegmentTotals(data.totals),
		TotalWorkMinutes:  record.DurationMinutes,
		MappingInfo:       toMappingInfo(sc.mapping),
	}, nil
}

func (s *ReportServiceImpl) GetMonthlyReport(ctx context.Context, req report.MonthlyReportRequest) (report.MonthlyReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyReport{}, malformed(err)
	}
	cardNo := strings.TrimSpace(req.CardNo)
	start, end := req.Period()

	sc, err := s.scope(ctx)
	if err != nil {
		return report.MonthlyReport{}, err
	}

	data, err := s.loadPeriod(ctx, sc, cardNo, start, end)
	if err != nil {
		return report.MonthlyReport{}, err
	}

	stats := summarize(data.records)
	records := make([]report.DayRecordResponse, 0, len(data.records))
	for _, rec := range data.records {
		records = append(records, toDayRecordResponse(rec))
	}

	return report.MonthlyReport{
		Identity:              toIdentity(data.employee),
		Month:                 start.Format("2006-01"),
		Records:               records,
		TotalDays:             stats.workedDays,
		MissingPunchDays:      stats.missingPunchDays,
		TotalMinutes:          stats.totalMinutes,
		TotalDurationHHMM:     minutesToHHMM(stats.totalMinutes),
		TotalDurationReadable: formatDurationReadable(stats.totalMinutes),
		TotalHours:            minutesToHours(stats.totalMinutes),
		AverageMinutesPerDay:  stats.average(),
		AverageDurationHHMM:   minutesToHHMMPtr(stats.average()),
		TotalWorkMinutes:      stats.totalMinutes,
		SegmentTotals:         toSegmentTotals(data.totals),
		MappingInfo:           toMappingInfo(sc.mapping),
	}, nil
}

func (s *ReportServiceImpl) GetYearlyReport(ctx context.Context, req report.YearlyReportRequest) (report.YearlyReport, error) {
	if err := req.Validate(); err != nil {
		return report.YearlyReport{}, malformed(err)
	}
	cardNo := strings.TrimSpace(req.CardNo)
	start, end := req.Period()

	sc, err := s.scope(ctx)
	if err != nil {
		return report.YearlyReport{}, err
	}

	data, err := s.loadPeriod(ctx, sc, cardNo, start, end)
	if err != nil {
		return report.YearlyReport{}, err
	}

	byMonth := make(map[string][]attendance.DayRecord)
	for _, rec := range data.records {
		key := rec.Date.Format("2006-01")
		byMonth[key] = append(byMonth[key], rec)
	}
	keys := make([]string, 0, len(byMonth))
	for key := range byMonth {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	months := make([]report.MonthSummary, 0, len(keys))
	for _, key := range keys {
		stats := summarize(byMonth[key])
		months = append(months, report.MonthSummary{
			Month:                 key,
			WorkedDays:            stats.workedDays,
			MissingPunchDays:      stats.missingPunchDays,
			TotalMinutes:          stats.totalMinutes,
			TotalHours:            minutesToHours(stats.totalMinutes),
			AverageMinutesPerDay:  stats.average(),
			AverageDurationHHMM:   minutesToHHMMPtr(stats.average()),
			TotalDurationHHMM:     minutesToHHMM(stats.totalMinutes),
			TotalDurationReadable: formatDurationReadable(stats.totalMinutes),
		})
	}

	year := summarize(data.records)

	return report.YearlyReport{
		Identity:              toIdentity(data.employee),
		Year:                  start.Format("2006"),
		Months:                months,
		TotalWorkedDays:       year.workedDays,
		MissingPunchDays:      year.missingPunchDays,
		TotalMinutes:          year.totalMinutes,
		TotalHours:            minutesToHours(year.totalMinutes),
		TotalDurationHHMM:     minutesToHHMM(year.totalMinutes),
		TotalDurationReadable: formatDurationReadable(year.totalMinutes),
		TotalWorkMinutes:      year.totalMinutes,
		SegmentTotals:         toSegmentTotals(data.totals),
		MappingInfo:           toMappingInfo(sc.mapping),
	}, nil
}

// recordStats aggregates a list of day records.
type recordStats struct {
	workedDays       int
	missingPunchDays int
	durationDays     int
	totalMinutes     int
}

func summarize(records []attendance.DayRecord) recordStats {
	var stats recordStats
	for _, rec := range records {
		if rec.FirstIn != nil {
			stats.workedDays++
		}
		if rec.MissingPunch {
			stats.missingPunchDays++
		}
		if rec.DurationMinutes != nil {
			stats.durationDays++
			stats.totalMinutes += *rec.DurationMinutes
		}
	}
	return stats
}

// average is the truncated mean over days with a duration, nil when none.
func (s recordStats) average() *int {
	if s.durationDays == 0 {
		return nil
	}
	avg := s.totalMinutes / s.durationDays
	return &avg
}
