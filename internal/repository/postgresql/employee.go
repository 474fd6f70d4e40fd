package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) attendance.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// activeEmployeeWhere filters to enabled cardholders that are not deleted, on
// leave or visitors. Flags are compared as text so integer, bit and boolean
// columns all work.
func activeEmployeeWhere(alias string, schema attendance.SchemaDescriptor) string {
	flagOff := func(column string) string {
		col := qualified(alias, column)
		return fmt.Sprintf("(%s IS NULL OR %s IN ('0', 'false'))", col, asText(col))
	}
	card := qualified(alias, schema.EmployeeCard)

	return strings.Join([]string{
		asText(qualified(alias, schema.EmployeeEnabled)) + " IN ('1', 'true')",
		flagOff(schema.EmployeeDeleted),
		flagOff(schema.EmployeeLeave),
		flagOff(schema.EmployeeVisitor),
		fmt.Sprintf("%s IS NOT NULL AND BTRIM(%s) NOT IN ('', '0')", card, asText(card)),
	}, " AND ")
}

// optionalTextExpr renders a trimmed text column, or '' when the role has no column.
func optionalTextExpr(alias, column string) string {
	if column == "" {
		return "''"
	}
	return fmt.Sprintf("BTRIM(COALESCE(%s, ''))", asText(qualified(alias, column)))
}

func (r *employeeRepositoryImpl) GetByCardNo(ctx context.Context, schema attendance.SchemaDescriptor, cardNo string) (attendance.Employee, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT
			%s AS emp_id,
			BTRIM(%s) AS card_no,
			%s AS employee_name,
			%s AS department
		FROM %s emp
		WHERE %s
			AND BTRIM(%s) = $1
		ORDER BY employee_name, card_no
		LIMIT 1
	`,
		asText(qualified("emp", schema.EmployeeID)),
		asText(qualified("emp", schema.EmployeeCard)),
		optionalTextExpr("emp", schema.EmployeeName),
		optionalTextExpr("emp", schema.EmployeeDepartment),
		quoteIdent(attendance.TableEmployee),
		activeEmployeeWhere("emp", schema),
		asText(qualified("emp", schema.EmployeeCard)),
	)

	var (
		empID                  *string
		card, name, department string
	)
	err := q.QueryRow(ctx, query, cardNo).Scan(&empID, &card, &name, &department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cardOnlyEmployee(cardNo), nil
		}
		return attendance.Employee{}, classifyError("failed to get employee by card", err)
	}

	return newEmployee(empID, card, name, department, cardNo), nil
}

func (r *employeeRepositoryImpl) List(ctx context.Context, schema attendance.SchemaDescriptor, search string, limit int) ([]attendance.Employee, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	nameExpr := optionalTextExpr("emp", schema.EmployeeName)
	cardExpr := "BTRIM(" + asText(qualified("emp", schema.EmployeeCard)) + ")"

	query := fmt.Sprintf(`
		SELECT
			%s AS emp_id,
			%s AS card_no,
			%s AS employee_name
		FROM %s emp
		WHERE %s
	`,
		asText(qualified("emp", schema.EmployeeID)),
		cardExpr,
		nameExpr,
		quoteIdent(attendance.TableEmployee),
		activeEmployeeWhere("emp", schema),
	)

	args := []any{limit}
	if search = strings.TrimSpace(search); search != "" {
		query += fmt.Sprintf(`
			AND (%s ILIKE $2 OR %s ILIKE $2)
		`, nameExpr, cardExpr)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += `
		ORDER BY employee_name, card_no
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("failed to list employees", err)
	}
	defer rows.Close()

	employees := make([]attendance.Employee, 0)
	for rows.Next() {
		var (
			empID      *string
			card, name string
		)
		if err := rows.Scan(&empID, &card, &name); err != nil {
			return nil, classifyError("failed to scan employee", err)
		}
		if card == "" {
			continue
		}
		employees = append(employees, newEmployee(empID, card, name, "", card))
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("failed to iterate employees", err)
	}

	return employees, nil
}

func (r *employeeRepositoryImpl) CountActive(ctx context.Context, schema attendance.SchemaDescriptor) (int, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s emp
		WHERE %s
	`, quoteIdent(attendance.TableEmployee), activeEmployeeWhere("emp", schema))

	var count int
	if err := q.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, classifyError("failed to count active employees", err)
	}
	return count, nil
}

func (r *employeeRepositoryImpl) LatestFlags(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant) ([]attendance.Flag, error) {
	if !canQueryEvents(schema, variant) {
		count, err := r.CountActive(ctx, schema)
		if err != nil {
			return nil, err
		}
		return make([]attendance.Flag, count), nil
	}

	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	join, valueExpr, labelExpr := variantFragments(variant, "e", "et")
	timeCol := qualified("e", schema.EventTime)

	query := fmt.Sprintf(`
		SELECT latest.raw_value, latest.raw_label
		FROM %s emp
		LEFT JOIN LATERAL (
			SELECT %s AS raw_value, %s AS raw_label
			FROM %s e
			%s
			WHERE %s = BTRIM(%s)
				AND %s IS NOT NULL
			ORDER BY %s DESC
			LIMIT 1
		) latest ON TRUE
		WHERE %s
	`,
		quoteIdent(attendance.TableEmployee),
		valueExpr, labelExpr,
		quoteIdent(attendance.TableEvent),
		join,
		asText(qualified("e", schema.EventCard)), asText(qualified("emp", schema.EmployeeCard)),
		timeCol,
		timeCol,
		activeEmployeeWhere("emp", schema),
	)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, classifyError("failed to query latest events", err)
	}
	defer rows.Close()

	flags := make([]attendance.Flag, 0)
	for rows.Next() {
		var value, label *string
		if err := rows.Scan(&value, &label); err != nil {
			return nil, classifyError("failed to scan latest event", err)
		}
		flags = append(flags, variant.Normalize(value, label))
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("failed to iterate latest events", err)
	}

	return flags, nil
}

func newEmployee(empID *string, card, name, department, fallbackCard string) attendance.Employee {
	card = strings.TrimSpace(card)
	if card == "" {
		card = fallbackCard
	}
	emp := attendance.Employee{
		EmpID:        normalizeEmpID(empID, card),
		CardNo:       card,
		EmployeeName: strings.TrimSpace(name),
	}
	if emp.EmployeeName == "" {
		emp.EmployeeName = card
	}
	if department = strings.TrimSpace(department); department != "" {
		emp.Department = &department
	}
	return emp
}

func cardOnlyEmployee(cardNo string) attendance.Employee {
	return attendance.Employee{EmpID: cardNo, CardNo: cardNo, EmployeeName: cardNo}
}

// normalizeEmpID renders integral ids canonically ("0042" and "42.0" become
// "42") and falls back to the card number when the id is blank.
func normalizeEmpID(raw *string, fallbackCard string) string {
	if raw == nil {
		return fallbackCard
	}
	text := strings.TrimSpace(*raw)
	if text == "" {
		return fallbackCard
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return text
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
