package postgresql

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// upstreamDDL mirrors an access-control installation whose events carry an
// event-type code joined to the type table.
var upstreamDDL = []string{
	`CREATE TABLE "TEmployee" (
		"EmpID" INTEGER,
		"CardNo" VARCHAR(20),
		"EmpName" VARCHAR(100),
		"Department" VARCHAR(100),
		"EmpEnable" INTEGER,
		"Deleted" INTEGER,
		"Leave" INTEGER,
		"isVisitor" BOOLEAN
	)`,
	`CREATE TABLE "TEventType" (
		"EventID" INTEGER,
		"InOut" INTEGER,
		"Event" VARCHAR(100)
	)`,
	`CREATE TABLE "TEvent" (
		"EmpID" INTEGER,
		"CardNo" VARCHAR(20),
		"EventTime" TIMESTAMP,
		"EventType" INTEGER
	)`,
}

var upstreamSeed = []string{
	`INSERT INTO "TEventType" VALUES
		(1, 1, 'Entry Granted'),
		(2, 0, 'Exit Granted'),
		(3, NULL, 'Door Forced Open'),
		(4, NULL, 'Exit Button')`,
	`INSERT INTO "TEmployee" VALUES
		(1, '1001', 'Dewi Lestari', 'Engineering', 1, 0, 0, false),
		(2, '1002', 'Budi Santoso', NULL, 1, NULL, NULL, NULL),
		(3, '1003', 'Guest Visitor', NULL, 1, 0, 0, true),
		(4, '0', 'No Card', NULL, 1, 0, 0, false),
		(5, '1005', 'Disabled User', NULL, 0, 0, 0, false),
		(6, ' 1006 ', 'Promo 50%_off', NULL, 1, 0, 0, false),
		(7, '1007', 'On Leave', NULL, 1, 0, 1, false)`,
	`INSERT INTO "TEvent" VALUES
		(1, '1001', '2024-03-03 20:00:00', 1),
		(1, '1001', '2024-03-04 02:00:00', 2),
		(1, '1001', '2024-03-04 08:00:00', 1),
		(1, '1001', '2024-03-04 09:00:00', 3),
		(1, '1001', '2024-03-04 17:00:00', 4),
		(1, '1001', '2024-03-05 08:00:00', 1),
		(1, '1001', NULL, 1),
		(2, '1002', '2024-03-04 07:00:00', 2)`,
}

// TestDatabaseSetup untuk menginisialisasi test database
type TestDatabaseSetup struct {
	DB     *database.DB
	admin  *database.DB
	schema string
}

// NewTestDatabase membuat schema baru berisi tabel upstream. The tables are
// introspected through information_schema, so TEST_DATABASE_URL should point
// at a database without other copies of them.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping upstream integration test")
	}

	ctx := context.Background()
	admin, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 2})
	require.NoError(t, err, "failed to connect to test database")

	schema := "attendance_test_" + uuid.NewString()[:8]
	_, err = admin.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", quoteIdent(schema)))
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err, "TEST_DATABASE_URL must be a URL")
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := database.NewPostgreSQLDB(ctx, u.String(), database.PoolOptions{
		MaxConns:     4,
		QueryTimeout: 10 * time.Second,
	})
	require.NoError(t, err)

	setup := &TestDatabaseSetup{DB: db, admin: admin, schema: schema}
	t.Cleanup(setup.Close)

	for _, stmt := range append(append([]string{}, upstreamDDL...), upstreamSeed...) {
		_, err := db.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	return setup
}

// Close menghapus schema test dan menutup koneksi database
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
	_, _ = s.admin.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", quoteIdent(s.schema)))
	s.admin.Close()
}
