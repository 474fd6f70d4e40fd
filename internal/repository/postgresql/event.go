package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// scanPageSize bounds each page read while searching for a resolved event.
const scanPageSize = 500

type eventRepositoryImpl struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) attendance.EventRepository {
	return &eventRepositoryImpl{db: db}
}

// eventQuery renders a select of (time, raw value, raw label) over the event
// table. where and tail are appended verbatim and may reference e.<time>.
func eventQuery(schema attendance.SchemaDescriptor, variant attendance.EventVariant, where, order, tail string) string {
	join, valueExpr, labelExpr := variantFragments(variant, "e", "et")
	timeCol := qualified("e", schema.EventTime)

	return fmt.Sprintf(`
		SELECT %s AS event_time, %s AS raw_value, %s AS raw_label
		FROM %s e
		%s
		WHERE %s IS NOT NULL AND %s
		ORDER BY %s %s
		%s
	`, timeCol, valueExpr, labelExpr,
		quoteIdent(attendance.TableEvent),
		join,
		timeCol, where,
		timeCol, order,
		tail,
	)
}

func cardFilter(schema attendance.SchemaDescriptor) string {
	return asText(qualified("e", schema.EventCard)) + " = $1"
}

func canQueryEvents(schema attendance.SchemaDescriptor, variant attendance.EventVariant) bool {
	return variant.Supported() && schema.HasEventColumns()
}

func (r *eventRepositoryImpl) ListEvents(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant, cardNo string, start, end time.Time) ([]attendance.Event, error) {
	if !canQueryEvents(schema, variant) || !end.After(start) {
		return []attendance.Event{}, nil
	}

	timeCol := qualified("e", schema.EventTime)
	where := fmt.Sprintf("%s AND %s >= $2 AND %s < $3", cardFilter(schema), timeCol, timeCol)
	query := eventQuery(schema, variant, where, "ASC", "")

	events, err := r.queryEvents(ctx, query, variant, cardNo, start, end)
	if err != nil {
		return nil, classifyError("failed to list events", err)
	}
	return events, nil
}

func (r *eventRepositoryImpl) LastResolvedBefore(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant, cardNo string, boundary time.Time) (*attendance.Event, error) {
	if !canQueryEvents(schema, variant) {
		return nil, nil
	}

	timeCol := qualified("e", schema.EventTime)
	where := fmt.Sprintf("%s AND %s < $2", cardFilter(schema), timeCol)
	query := eventQuery(schema, variant, where, "DESC", "LIMIT $3 OFFSET $4")

	found, err := r.findPaged(ctx, query, variant, func(ev attendance.Event) bool {
		return ev.Flag.Resolved()
	}, cardNo, boundary)
	if err != nil {
		return nil, classifyError("failed to find anchor event", err)
	}
	return found, nil
}

func (r *eventRepositoryImpl) FirstFlagChangeFrom(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant, cardNo string, boundary time.Time, from attendance.Flag) (*attendance.Event, error) {
	if !canQueryEvents(schema, variant) {
		return nil, nil
	}

	timeCol := qualified("e", schema.EventTime)
	where := fmt.Sprintf("%s AND %s >= $2", cardFilter(schema), timeCol)
	query := eventQuery(schema, variant, where, "ASC", "LIMIT $3 OFFSET $4")

	found, err := r.findPaged(ctx, query, variant, func(ev attendance.Event) bool {
		return ev.Flag.Resolved() && ev.Flag != from
	}, cardNo, boundary)
	if err != nil {
		return nil, classifyError("failed to find closing event", err)
	}
	return found, nil
}

func (r *eventRepositoryImpl) RecentEvents(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant, limit int) ([]attendance.Event, error) {
	if !variant.Supported() || schema.EventTime == "" || limit <= 0 {
		return []attendance.Event{}, nil
	}

	query := eventQuery(schema, variant, "TRUE", "DESC", "LIMIT $1")

	events, err := r.queryEvents(ctx, query, variant, limit)
	if err != nil {
		return nil, classifyError("failed to sample recent events", err)
	}
	return events, nil
}

// findPaged walks the ordered query page by page and returns the first event
// accepted by match. The query takes LIMIT and OFFSET after args.
func (r *eventRepositoryImpl) findPaged(ctx context.Context, query string, variant attendance.EventVariant, match func(attendance.Event) bool, args ...any) (*attendance.Event, error) {
	for offset := 0; ; offset += scanPageSize {
		pageArgs := append(append([]any{}, args...), scanPageSize, offset)
		page, err := r.queryEvents(ctx, query, variant, pageArgs...)
		if err != nil {
			return nil, err
		}
		for _, ev := range page {
			if match(ev) {
				found := ev
				return &found, nil
			}
		}
		if len(page) < scanPageSize {
			return nil, nil
		}
	}
}

func (r *eventRepositoryImpl) queryEvents(ctx context.Context, query string, variant attendance.EventVariant, args ...any) ([]attendance.Event, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows, variant)
}

func scanEvents(rows pgx.Rows, variant attendance.EventVariant) ([]attendance.Event, error) {
	events := make([]attendance.Event, 0)
	for rows.Next() {
		var (
			at           time.Time
			value, label *string
		)
		if err := rows.Scan(&at, &value, &label); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, attendance.Event{
			Time: wallClock(at),
			Flag: variant.Normalize(value, label),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// wallClock keeps the clock reading of t and drops its zone.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
