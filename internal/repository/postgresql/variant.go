package postgresql

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/jackc/pgx/v5"
)

const nullText = "NULL::text"

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func qualified(alias, column string) string {
	return alias + "." + quoteIdent(column)
}

func asText(expr string) string {
	return "CAST(" + expr + " AS TEXT)"
}

// variantFragments returns the join clause and the raw value and label
// expressions for reading IN/OUT semantics of events aliased as eventAlias.
// Absent columns render as NULL; the Go side normalizes what comes back.
func variantFragments(v attendance.EventVariant, eventAlias, typeAlias string) (join, valueExpr, labelExpr string) {
	valueExpr, labelExpr = nullText, nullText

	switch v.Kind {
	case attendance.VariantEventTypeJoin, attendance.VariantEventIDJoin:
		// Keys compared as text: installations mix integer and varchar ids.
		join = fmt.Sprintf("LEFT JOIN %s %s ON %s = %s",
			quoteIdent(attendance.TableEventType), typeAlias,
			asText(qualified(eventAlias, v.EventKeyColumn)),
			asText(qualified(typeAlias, v.TypeKeyColumn)),
		)
		if v.ValueColumn != "" {
			valueExpr = asText(qualified(typeAlias, v.ValueColumn))
		}
		if v.LabelColumn != "" {
			labelExpr = asText(qualified(typeAlias, v.LabelColumn))
		}
	case attendance.VariantInOutColumn:
		valueExpr = asText(qualified(eventAlias, v.ValueColumn))
	case attendance.VariantEventLabel:
		labelExpr = asText(qualified(eventAlias, v.LabelColumn))
	}

	return join, valueExpr, labelExpr
}
