package postgresql

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

// SchemaCache introspects the upstream tables once per process and serves the
// resolved descriptor afterwards. Concurrent first calls may both introspect;
// the first to finish is kept.
type SchemaCache struct {
	db         *database.DB
	introspect func(ctx context.Context) (attendance.TableColumns, error)

	mu       sync.RWMutex
	resolved *attendance.SchemaDescriptor
}

func NewSchemaCache(db *database.DB) *SchemaCache {
	c := &SchemaCache{db: db}
	c.introspect = c.readColumns
	return c
}

func (c *SchemaCache) Schema(ctx context.Context) (attendance.SchemaDescriptor, error) {
	c.mu.RLock()
	resolved := c.resolved
	c.mu.RUnlock()
	if resolved != nil {
		return *resolved, nil
	}

	cols, err := c.introspect(ctx)
	if err != nil {
		return attendance.SchemaDescriptor{}, err
	}
	schema := attendance.ResolveSchema(cols)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved != nil {
		return *c.resolved, nil
	}
	c.resolved = &schema

	variant := attendance.DetectVariant(schema)
	slog.Info("Upstream schema resolved",
		"employee_columns", schema.EmployeeColumns.Len(),
		"event_columns", schema.EventColumns.Len(),
		"event_type_columns", schema.EventTypeColumns.Len(),
		"event_variant", variant.Kind,
	)
	if !schema.HasEventColumns() {
		slog.Warn("Event table lacks card or time column, event queries will return nothing",
			"event_columns", schema.EventColumns.Names(),
		)
	}

	return schema, nil
}

// Invalidate drops the resolved descriptor so the next call introspects again.
func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = nil
}

func (c *SchemaCache) readColumns(ctx context.Context) (attendance.TableColumns, error) {
	ctx, cancel := c.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, c.db)

	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_name = ANY($1)
			AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_name, ordinal_position
	`

	tables := []string{attendance.TableEmployee, attendance.TableEvent, attendance.TableEventType}
	rows, err := q.Query(ctx, query, tables)
	if err != nil {
		return attendance.TableColumns{}, classifyError("failed to introspect upstream columns", err)
	}
	defer rows.Close()

	var cols attendance.TableColumns
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return attendance.TableColumns{}, classifyError("failed to scan upstream column", err)
		}
		switch table {
		case attendance.TableEmployee:
			cols.Employee = append(cols.Employee, column)
		case attendance.TableEvent:
			cols.Event = append(cols.Event, column)
		case attendance.TableEventType:
			cols.EventType = append(cols.EventType, column)
		}
	}
	if err := rows.Err(); err != nil {
		return attendance.TableColumns{}, classifyError("failed to iterate upstream columns", err)
	}

	return cols, nil
}
