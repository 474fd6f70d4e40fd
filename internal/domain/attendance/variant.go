package attendance

import (
	"strconv"
	"strings"
)

// VariantKind names the strategy an installation uses to encode entry and exit.
type VariantKind string

const (
	// Event row carries an event-type code joined to the type table's EventID.
	VariantEventTypeJoin VariantKind = "EVENTTYPE_to_EventID"
	// Event row carries an EventID joined to the type table's EventID.
	VariantEventIDJoin VariantKind = "EVENTID_to_EventID"
	// Event row carries its own InOut column.
	VariantInOutColumn VariantKind = "TEVENT_InOut_only"
	// Event row carries a free-text label ("Entry ...", "Exit ...").
	VariantEventLabel VariantKind = "TEVENT_Event_text_only"
	VariantUnsupported VariantKind = "UNSUPPORTED"
)

// EventVariant describes how to read IN/OUT semantics off a raw event row.
//
// For the join kinds, EventKeyColumn is on the event table and TypeKeyColumn,
// ValueColumn and LabelColumn are on the type table. For VariantInOutColumn
// and VariantEventLabel every column is on the event table.
type EventVariant struct {
	Kind           VariantKind
	EventKeyColumn string
	TypeKeyColumn  string
	ValueColumn    string
	LabelColumn    string
}

func (v EventVariant) Supported() bool {
	return v.Kind != VariantUnsupported && v.Kind != ""
}

// Joined reports whether the variant reads its columns from the type table.
func (v EventVariant) Joined() bool {
	return v.Kind == VariantEventTypeJoin || v.Kind == VariantEventIDJoin
}

// DetectVariant picks the first applicable strategy in priority order.
func DetectVariant(schema SchemaDescriptor) EventVariant {
	event := schema.EventColumns
	eventType := schema.EventTypeColumns

	eventTypeCol := event.Pick("EventType")
	eventIDCol := event.Pick("EventID")
	eventInOutCol := event.Pick("InOut")
	eventLabelCol := event.Pick("Event")

	typeIDCol := eventType.Pick("EventID")
	typeInOutCol := eventType.Pick("InOut")
	typeLabelCol := eventType.Pick("Event")

	switch {
	case eventTypeCol != "" && typeIDCol != "":
		return EventVariant{
			Kind:           VariantEventTypeJoin,
			EventKeyColumn: eventTypeCol,
			TypeKeyColumn:  typeIDCol,
			ValueColumn:    typeInOutCol,
			LabelColumn:    typeLabelCol,
		}
	case eventIDCol != "" && typeIDCol != "":
		return EventVariant{
			Kind:           VariantEventIDJoin,
			EventKeyColumn: eventIDCol,
			TypeKeyColumn:  typeIDCol,
			ValueColumn:    typeInOutCol,
			LabelColumn:    typeLabelCol,
		}
	case eventInOutCol != "":
		return EventVariant{Kind: VariantInOutColumn, ValueColumn: eventInOutCol}
	case eventLabelCol != "":
		return EventVariant{Kind: VariantEventLabel, LabelColumn: eventLabelCol}
	default:
		return EventVariant{Kind: VariantUnsupported}
	}
}

// Normalize maps the raw value and label read for a row to a Flag. Either may
// be nil when the column is absent or NULL.
func (v EventVariant) Normalize(value, label *string) Flag {
	if !v.Supported() {
		return FlagUnknown
	}
	if v.ValueColumn != "" && value != nil {
		if flag := NormalizeCode(*value); flag != FlagUnknown {
			return flag
		}
	}
	if v.LabelColumn != "" && label != nil {
		return NormalizeLabel(*label)
	}
	return FlagUnknown
}

var (
	entryTokens = map[string]struct{}{"IN": {}, "I": {}, "ENTRY": {}, "ENTER": {}, "TRUE": {}}
	exitTokens  = map[string]struct{}{"OUT": {}, "O": {}, "EXIT": {}, "LEAVE": {}, "FALSE": {}}
)

// NormalizeCode interprets an in/out code. 1 is entry; 0, 2 and -1 are exit
// (2 and -1 are legacy exit codes). Boolean renderings of 1/0 are accepted.
func NormalizeCode(raw string) Flag {
	text := strings.TrimSpace(raw)
	if text == "" {
		return FlagUnknown
	}

	if n, err := strconv.ParseFloat(text, 64); err == nil {
		switch n {
		case 1:
			return FlagIn
		case 0, 2, -1:
			return FlagOut
		default:
			return FlagUnknown
		}
	}

	upper := strings.ToUpper(text)
	if _, ok := entryTokens[upper]; ok {
		return FlagIn
	}
	if _, ok := exitTokens[upper]; ok {
		return FlagOut
	}
	return NormalizeLabel(text)
}

// NormalizeLabel matches the "Entry..." / "Exit..." label convention.
func NormalizeLabel(raw string) Flag {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lower, "entry"):
		return FlagIn
	case strings.HasPrefix(lower, "exit"):
		return FlagOut
	default:
		return FlagUnknown
	}
}
