package attendance

import (
	"context"
	"time"
)

// SchemaProvider returns the process-wide resolved schema.
type SchemaProvider interface {
	Schema(ctx context.Context) (SchemaDescriptor, error)
}

// SnapshotReader groups reads so they observe one state of the upstream.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventRepository reads swipe events from the upstream event table.
// Every method returns an empty result when the schema has no event columns
// or the variant is unsupported.
type EventRepository interface {
	// ListEvents returns events of a card in [start, end), ascending by time.
	ListEvents(ctx context.Context, schema SchemaDescriptor, variant EventVariant, cardNo string, start, end time.Time) ([]Event, error)

	// LastResolvedBefore returns the most recent event strictly before boundary
	// whose flag is IN or OUT, or nil.
	LastResolvedBefore(ctx context.Context, schema SchemaDescriptor, variant EventVariant, cardNo string, boundary time.Time) (*Event, error)

	// FirstFlagChangeFrom returns the earliest event at or after boundary whose
	// flag is resolved and differs from the given raw flag, or nil.
	FirstFlagChangeFrom(ctx context.Context, schema SchemaDescriptor, variant EventVariant, cardNo string, boundary time.Time, from Flag) (*Event, error)

	// RecentEvents returns the latest events across all cards, newest first.
	RecentEvents(ctx context.Context, schema SchemaDescriptor, variant EventVariant, limit int) ([]Event, error)
}

// EmployeeRepository reads cardholders from the upstream employee table.
// Only active employees are visible: enabled, not deleted, not on leave,
// not a visitor and holding a non-zero card.
type EmployeeRepository interface {
	// GetByCardNo returns the identity for a card. A card with no matching
	// active employee yields an identity built from the card number alone.
	GetByCardNo(ctx context.Context, schema SchemaDescriptor, cardNo string) (Employee, error)

	List(ctx context.Context, schema SchemaDescriptor, search string, limit int) ([]Employee, error)

	CountActive(ctx context.Context, schema SchemaDescriptor) (int, error)

	// LatestFlags returns the raw flag of each active employee's latest event,
	// FlagUnknown for employees without events.
	LatestFlags(ctx context.Context, schema SchemaDescriptor, variant EventVariant) ([]Flag, error)
}
