package attendance

import (
	"context"
)

// MappingService maintains the cached polarity state.
type MappingService interface {
	// State returns the mapping state for the given variant, sampling the event
	// table when the cached entry is missing, expired or for another variant.
	State(ctx context.Context, schema SchemaDescriptor, variant EventVariant) (MappingState, error)

	// Refresh recomputes the state for the current schema and stores it.
	Refresh(ctx context.Context) error

	// Invalidate drops the cached state.
	Invalidate()
}
