package postgresql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestNormalizeEmpID(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want string
	}{
		{"nil falls back to card", nil, "1001"},
		{"blank falls back to card", strPtr("  "), "1001"},
		{"leading zeros", strPtr("0042"), "42"},
		{"integral float", strPtr("42.0"), "42"},
		{"fractional kept", strPtr("42.5"), "42.5"},
		{"non numeric kept", strPtr(" E-17 "), "E-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEmpID(tt.raw, "1001"))
		})
	}
}

func TestNewEmployee_Fallbacks(t *testing.T) {
	emp := newEmployee(nil, " 1001 ", "  ", " ", "x")

	assert.Equal(t, attendance.Employee{EmpID: "1001", CardNo: "1001", EmployeeName: "1001"}, emp)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off`, escapeLike("50%_off"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestVariantFragments(t *testing.T) {
	join, value, label := variantFragments(attendance.EventVariant{
		Kind:           attendance.VariantEventTypeJoin,
		EventKeyColumn: "EventType",
		TypeKeyColumn:  "EventID",
		ValueColumn:    "InOut",
		LabelColumn:    "Event",
	}, "e", "et")
	assert.Equal(t, `LEFT JOIN "TEventType" et ON CAST(e."EventType" AS TEXT) = CAST(et."EventID" AS TEXT)`, join)
	assert.Equal(t, `CAST(et."InOut" AS TEXT)`, value)
	assert.Equal(t, `CAST(et."Event" AS TEXT)`, label)

	join, value, label = variantFragments(attendance.EventVariant{
		Kind:           attendance.VariantEventIDJoin,
		EventKeyColumn: "EventID",
		TypeKeyColumn:  "EventID",
		LabelColumn:    "Event",
	}, "e", "et")
	assert.Contains(t, join, `CAST(e."EventID" AS TEXT)`)
	assert.Equal(t, nullText, value)
	assert.Equal(t, `CAST(et."Event" AS TEXT)`, label)

	join, value, label = variantFragments(attendance.EventVariant{Kind: attendance.VariantInOutColumn, ValueColumn: "InOut"}, "e", "et")
	assert.Empty(t, join)
	assert.Equal(t, `CAST(e."InOut" AS TEXT)`, value)
	assert.Equal(t, nullText, label)

	join, value, label = variantFragments(attendance.EventVariant{Kind: attendance.VariantEventLabel, LabelColumn: "Event"}, "e", "et")
	assert.Empty(t, join)
	assert.Equal(t, nullText, value)
	assert.Equal(t, `CAST(e."Event" AS TEXT)`, label)
}

func TestQuoteIdent_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"Emp""ID"`, quoteIdent(`Emp"ID`))
}

func TestActiveEmployeeWhere(t *testing.T) {
	schema := attendance.ResolveSchema(attendance.TableColumns{
		Employee: []string{"EmpID", "CardNo", "EmpEnable", "Deleted", "Leave", "IsVisitor"},
	})

	where := activeEmployeeWhere("emp", schema)

	assert.Contains(t, where, `CAST(emp."EmpEnable" AS TEXT) IN ('1', 'true')`)
	assert.Contains(t, where, `(emp."Deleted" IS NULL OR CAST(emp."Deleted" AS TEXT) IN ('0', 'false'))`)
	assert.Contains(t, where, `emp."IsVisitor"`)
	assert.Contains(t, where, `BTRIM(CAST(emp."CardNo" AS TEXT)) NOT IN ('', '0')`)
}

func TestEventQuery_ExcludesNullTimes(t *testing.T) {
	schema := attendance.ResolveSchema(attendance.TableColumns{Event: []string{"CardNo", "EventTime", "InOut"}})
	variant := attendance.DetectVariant(schema)

	query := eventQuery(schema, variant, cardFilter(schema), "ASC", "LIMIT $2")

	assert.Contains(t, query, `e."EventTime" IS NOT NULL AND CAST(e."CardNo" AS TEXT) = $1`)
	assert.Contains(t, query, `ORDER BY e."EventTime" ASC`)
	assert.Contains(t, query, "LIMIT $2")
}

func TestClassifyError(t *testing.T) {
	undefinedColumn := &pgconn.PgError{Code: "42703", Message: `column "EventTime" does not exist`}
	err := classifyError("failed to list events", undefinedColumn)
	assert.ErrorIs(t, err, attendance.ErrUnresolvedSchema)
	assert.ErrorIs(t, err, undefinedColumn)

	err = classifyError("op", &pgconn.PgError{Code: "42P01"})
	assert.ErrorIs(t, err, attendance.ErrUnresolvedSchema)

	err = classifyError("op", &pgconn.PgError{Code: "22P02"})
	assert.False(t, errors.Is(err, attendance.ErrUnresolvedSchema))
	assert.False(t, errors.Is(err, attendance.ErrUpstreamUnavailable))

	err = classifyError("op", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, attendance.ErrUpstreamUnavailable)

	err = classifyError("op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	assert.ErrorIs(t, err, attendance.ErrUpstreamUnavailable)

	err = classifyError("op", errors.New("closed pool"))
	assert.ErrorIs(t, err, attendance.ErrUpstreamUnavailable)

	err = classifyError("op", errors.New("syntax"))
	assert.False(t, errors.Is(err, attendance.ErrUpstreamUnavailable))

	assert.NoError(t, classifyError("op", nil))
}

func TestWallClock(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	got := wallClock(time.Date(2024, 3, 4, 8, 15, 0, 0, jakarta))

	assert.Equal(t, time.Date(2024, 3, 4, 8, 15, 0, 0, time.UTC), got)
}
