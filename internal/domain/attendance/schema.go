package attendance

import (
	"golang.org/x/text/cases"
)

// Upstream tables owned by the access-control installation.
const (
	TableEmployee  = "TEmployee"
	TableEvent     = "TEvent"
	TableEventType = "TEventType"
)

var (
	nameColumnCandidates       = []string{"EmployeeName", "EnglishName", "Name", "EmpName", "EName", "UserName", "User"}
	departmentColumnCandidates = []string{"Department", "DepartmentName", "DeptName", "Dept", "DepName"}
)

// ColumnSet is the set of column names observed on one table. Lookups are
// case-insensitive and return the name as spelled by the upstream schema.
type ColumnSet struct {
	names  []string
	folded map[string]string
}

func NewColumnSet(names ...string) ColumnSet {
	folder := cases.Fold()
	set := ColumnSet{folded: make(map[string]string, len(names))}
	for _, name := range names {
		if name == "" {
			continue
		}
		key := folder.String(name)
		if _, exists := set.folded[key]; exists {
			continue
		}
		set.folded[key] = name
		set.names = append(set.names, name)
	}
	return set
}

// Pick returns the first candidate present in the set, or "" when none is.
func (c ColumnSet) Pick(candidates ...string) string {
	folder := cases.Fold()
	for _, candidate := range candidates {
		if found, ok := c.folded[folder.String(candidate)]; ok {
			return found
		}
	}
	return ""
}

func (c ColumnSet) Has(name string) bool {
	return c.Pick(name) != ""
}

func (c ColumnSet) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c ColumnSet) Len() int {
	return len(c.names)
}

// TableColumns holds the observed columns of the three upstream tables.
type TableColumns struct {
	Employee  []string
	Event     []string
	EventType []string
}

// SchemaDescriptor maps semantic roles to physical columns. It is built once
// by ResolveSchema and only ever replaced wholesale.
type SchemaDescriptor struct {
	EmployeeColumns  ColumnSet
	EventColumns     ColumnSet
	EventTypeColumns ColumnSet

	EmployeeID      string
	EmployeeCard    string
	EmployeeEnabled string
	EmployeeDeleted string
	EmployeeLeave   string
	EmployeeVisitor string

	// Optional. Empty means the installation has no such column.
	EmployeeName       string
	EmployeeDepartment string

	// Empty when the event table lacks them; event queries then return nothing.
	EventEmployeeID string
	EventCard       string
	EventTime       string
}

// ResolveSchema selects one column per role from the observed columns.
func ResolveSchema(cols TableColumns) SchemaDescriptor {
	employee := NewColumnSet(cols.Employee...)
	event := NewColumnSet(cols.Event...)
	eventType := NewColumnSet(cols.EventType...)

	return SchemaDescriptor{
		EmployeeColumns:  employee,
		EventColumns:     event,
		EventTypeColumns: eventType,

		EmployeeID:      pickOr(employee, "EmpID"),
		EmployeeCard:    pickOr(employee, "CardNo"),
		EmployeeEnabled: pickOr(employee, "EmpEnable"),
		EmployeeDeleted: pickOr(employee, "Deleted"),
		EmployeeLeave:   pickOr(employee, "Leave"),
		EmployeeVisitor: pickOr(employee, "isVisitor", "IsVisitor"),

		EmployeeName:       employee.Pick(nameColumnCandidates...),
		EmployeeDepartment: employee.Pick(departmentColumnCandidates...),

		EventEmployeeID: event.Pick("EmpID"),
		EventCard:       event.Pick("CardNo"),
		EventTime:       event.Pick("EventTime"),
	}
}

// HasEventColumns reports whether per-card event queries can be built.
func (s SchemaDescriptor) HasEventColumns() bool {
	return s.EventCard != "" && s.EventTime != ""
}

// pickOr falls back to the first candidate spelled literally. Queries using an
// absent fallback fail upstream with ErrUnresolvedSchema.
func pickOr(set ColumnSet, candidates ...string) string {
	if found := set.Pick(candidates...); found != "" {
		return found
	}
	return candidates[0]
}
