package postgresql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func resolve(t *testing.T, setup *TestDatabaseSetup) (attendance.SchemaDescriptor, attendance.EventVariant) {
	t.Helper()
	schema, err := NewSchemaCache(setup.DB).Schema(context.Background())
	require.NoError(t, err)
	return schema, attendance.DetectVariant(schema)
}

func flagsOf(events []attendance.Event) []attendance.Flag {
	flags := make([]attendance.Flag, 0, len(events))
	for _, ev := range events {
		flags = append(flags, ev.Flag)
	}
	return flags
}

func TestSchemaCache_ResolvesUpstream(t *testing.T) {
	setup := NewTestDatabase(t)
	cache := NewSchemaCache(setup.DB)
	ctx := context.Background()

	schema, err := cache.Schema(ctx)
	require.NoError(t, err)

	assert.Equal(t, "EmpName", schema.EmployeeName)
	assert.Equal(t, "Department", schema.EmployeeDepartment)
	assert.Equal(t, "isVisitor", schema.EmployeeVisitor)
	assert.Equal(t, "EventTime", schema.EventTime)
	assert.True(t, schema.HasEventColumns())

	variant := attendance.DetectVariant(schema)
	assert.Equal(t, attendance.VariantEventTypeJoin, variant.Kind)
	assert.Equal(t, "InOut", variant.ValueColumn)
	assert.Equal(t, "Event", variant.LabelColumn)

	// Served from cache after the first call
	_, err = setup.DB.Exec(ctx, `ALTER TABLE "TEvent" ADD COLUMN "Remark" TEXT`)
	require.NoError(t, err)
	cached, err := cache.Schema(ctx)
	require.NoError(t, err)
	assert.False(t, cached.EventColumns.Has("Remark"))

	cache.Invalidate()
	fresh, err := cache.Schema(ctx)
	require.NoError(t, err)
	assert.True(t, fresh.EventColumns.Has("Remark"))
}

func TestEventRepository_ListEvents(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	repo := NewEventRepository(setup.DB)

	events, err := repo.ListEvents(context.Background(), schema, variant, "1001", ts("2024-03-04 00:00:00"), ts("2024-03-05 00:00:00"))

	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, ts("2024-03-04 02:00:00"), events[0].Time)
	assert.Equal(t, []attendance.Flag{
		attendance.FlagOut,
		attendance.FlagIn,
		attendance.FlagUnknown,
		attendance.FlagOut,
	}, flagsOf(events))
}

func TestEventRepository_ListEventsUnsupported(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, _ := resolve(t, setup)
	repo := NewEventRepository(setup.DB)

	events, err := repo.ListEvents(context.Background(), schema, attendance.EventVariant{Kind: attendance.VariantUnsupported}, "1001", ts("2024-03-04 00:00:00"), ts("2024-03-05 00:00:00"))

	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEventRepository_LastResolvedBefore(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	repo := NewEventRepository(setup.DB)
	ctx := context.Background()

	// 09:00 is unresolved and skipped
	ev, err := repo.LastResolvedBefore(ctx, schema, variant, "1001", ts("2024-03-04 09:30:00"))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ts("2024-03-04 08:00:00"), ev.Time)
	assert.Equal(t, attendance.FlagIn, ev.Flag)

	ev, err = repo.LastResolvedBefore(ctx, schema, variant, "1001", ts("2024-03-03 20:00:00"))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestEventRepository_FirstFlagChangeFrom(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	repo := NewEventRepository(setup.DB)
	ctx := context.Background()

	ev, err := repo.FirstFlagChangeFrom(ctx, schema, variant, "1001", ts("2024-03-04 08:30:00"), attendance.FlagIn)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ts("2024-03-04 17:00:00"), ev.Time)
	assert.Equal(t, attendance.FlagOut, ev.Flag)

	ev, err = repo.FirstFlagChangeFrom(ctx, schema, variant, "1001", ts("2024-03-04 17:00:00"), attendance.FlagIn)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ts("2024-03-04 17:00:00"), ev.Time)

	ev, err = repo.FirstFlagChangeFrom(ctx, schema, variant, "1001", ts("2024-03-05 00:00:00"), attendance.FlagIn)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestEventRepository_RecentEvents(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	repo := NewEventRepository(setup.DB)

	events, err := repo.RecentEvents(context.Background(), schema, variant, 3)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ts("2024-03-05 08:00:00"), events[0].Time)
	assert.Equal(t, ts("2024-03-04 17:00:00"), events[1].Time)
	assert.Equal(t, ts("2024-03-04 09:00:00"), events[2].Time)
}

func TestEventRepository_UnresolvedColumn(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	schema.EventTime = "Timestamp"
	repo := NewEventRepository(setup.DB)

	_, err := repo.ListEvents(context.Background(), schema, variant, "1001", ts("2024-03-04 00:00:00"), ts("2024-03-05 00:00:00"))

	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrUnresolvedSchema)
}

func TestEmployeeRepository_GetByCardNo(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, _ := resolve(t, setup)
	repo := NewEmployeeRepository(setup.DB)
	ctx := context.Background()

	emp, err := repo.GetByCardNo(ctx, schema, "1001")
	require.NoError(t, err)
	assert.Equal(t, "1", emp.EmpID)
	assert.Equal(t, "Dewi Lestari", emp.EmployeeName)
	require.NotNil(t, emp.Department)
	assert.Equal(t, "Engineering", *emp.Department)

	emp, err = repo.GetByCardNo(ctx, schema, "1006")
	require.NoError(t, err)
	assert.Equal(t, "6", emp.EmpID)
	assert.Equal(t, "1006", emp.CardNo)
	assert.Nil(t, emp.Department)

	// Visitors are not active employees
	emp, err = repo.GetByCardNo(ctx, schema, "1003")
	require.NoError(t, err)
	assert.Equal(t, attendance.Employee{EmpID: "1003", CardNo: "1003", EmployeeName: "1003"}, emp)
}

func TestEmployeeRepository_List(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, _ := resolve(t, setup)
	repo := NewEmployeeRepository(setup.DB)
	ctx := context.Background()

	all, err := repo.List(ctx, schema, "", 200)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, emp := range all {
		names = append(names, emp.EmployeeName)
	}
	assert.Equal(t, []string{"Budi Santoso", "Dewi Lestari", "Promo 50%_off"}, names)

	limited, err := repo.List(ctx, schema, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	byName, err := repo.List(ctx, schema, "DEWI", 200)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "1001", byName[0].CardNo)

	byCard, err := repo.List(ctx, schema, "1002", 200)
	require.NoError(t, err)
	require.Len(t, byCard, 1)
	assert.Equal(t, "Budi Santoso", byCard[0].EmployeeName)

	// Wildcards in the search term match literally
	literal, err := repo.List(ctx, schema, "50%_", 200)
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "1006", literal[0].CardNo)

	percent, err := repo.List(ctx, schema, "%", 200)
	require.NoError(t, err)
	assert.Len(t, percent, 1)
}

func TestEmployeeRepository_CountAndLatestFlags(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, variant := resolve(t, setup)
	repo := NewEmployeeRepository(setup.DB)
	ctx := context.Background()

	count, err := repo.CountActive(ctx, schema)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	flags, err := repo.LatestFlags(ctx, schema, variant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []attendance.Flag{attendance.FlagIn, attendance.FlagOut, attendance.FlagUnknown}, flags)

	unsupported, err := repo.LatestFlags(ctx, schema, attendance.EventVariant{Kind: attendance.VariantUnsupported})
	require.NoError(t, err)
	assert.Equal(t, []attendance.Flag{attendance.FlagUnknown, attendance.FlagUnknown, attendance.FlagUnknown}, unsupported)
}

func TestSnapshotRunner_ReadSnapshot(t *testing.T) {
	setup := NewTestDatabase(t)
	schema, _ := resolve(t, setup)
	runner := NewSnapshotRunner(setup.DB)
	repo := NewEmployeeRepository(setup.DB)
	ctx := context.Background()

	var count int
	err := runner.ReadSnapshot(ctx, func(ctx context.Context) error {
		_, inTx := GetQuerier(ctx, setup.DB).(pgx.Tx)
		assert.True(t, inTx)

		var err error
		count, err = repo.CountActive(ctx, schema)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	err = runner.ReadSnapshot(ctx, func(ctx context.Context) error {
		_, err := GetQuerier(ctx, setup.DB).Exec(ctx, `DELETE FROM "TEvent"`)
		return err
	})
	require.Error(t, err)

	sentinel := errors.New("stop")
	err = runner.ReadSnapshot(ctx, func(ctx context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	count, err = repo.CountActive(ctx, schema)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
