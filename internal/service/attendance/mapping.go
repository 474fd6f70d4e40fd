package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// MappingConfig configures polarity detection.
type MappingConfig struct {
	ManualOverride bool
	TTL            time.Duration
	Heuristic      attendance.HeuristicConfig
}

type MappingServiceImpl struct {
	schemas   attendance.SchemaProvider
	eventRepo attendance.EventRepository
	cfg       MappingConfig
	now       func() time.Time

	mu     sync.Mutex
	cached *attendance.MappingState
}

type MappingOption func(*MappingServiceImpl)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MappingOption {
	return func(s *MappingServiceImpl) {
		s.now = now
	}
}

func NewMappingService(schemas attendance.SchemaProvider, eventRepo attendance.EventRepository, cfg MappingConfig, opts ...MappingOption) attendance.MappingService {
	if cfg.TTL <= 0 {
		cfg.TTL = 300 * time.Second
	}
	s := &MappingServiceImpl{
		schemas:   schemas,
		eventRepo: eventRepo,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the polarity mapping for the variant.
func (s *MappingServiceImpl) State(ctx context.Context, schema attendance.SchemaDescriptor, variant attendance.EventVariant) (attendance.MappingState, error) {
	now := s.now()

	if !variant.Supported() {
		return attendance.MappingState{
			Variant:         attendance.MappingUnsupported,
			DetectorVariant: attendance.VariantUnsupported,
			ComputedAt:      now,
		}, nil
	}

	if s.cfg.ManualOverride {
		return attendance.MappingState{
			Variant:         attendance.MappingSwapped,
			SwapApplied:     true,
			DetectorVariant: variant.Kind,
			ManualOverride:  true,
			ComputedAt:      now,
		}, nil
	}

	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()

	if cached != nil && cached.DetectorVariant == variant.Kind && now.Sub(cached.ComputedAt) < s.cfg.TTL {
		return *cached, nil
	}

	sample, err := s.eventRepo.RecentEvents(ctx, schema, variant, s.cfg.Heuristic.SampleSize)
	if err != nil {
		return attendance.MappingState{}, fmt.Errorf("failed to sample recent events: %w", err)
	}

	decision := attendance.DetectSwap(sample, s.cfg.Heuristic)
	state := attendance.MappingState{
		Variant:         attendance.MappingNormal,
		SwapApplied:     decision.Swapped,
		DetectorVariant: variant.Kind,
		AutoDetected:    decision.Swapped,
		ComputedAt:      now,
	}
	if decision.Swapped {
		state.Variant = attendance.MappingSwapped
	}

	slog.Info("Polarity mapping computed",
		"detector_variant", variant.Kind,
		"mapping_variant", state.Variant,
		"heuristic_enabled", decision.Enabled,
		"resolved_events", decision.Resolved,
		"in_ratio", decision.InRatio,
		"out_ratio", decision.OutRatio,
	)

	s.mu.Lock()
	s.cached = &state
	s.mu.Unlock()

	return state, nil
}

// Refresh recomputes the mapping for the current schema.
func (s *MappingServiceImpl) Refresh(ctx context.Context) error {
	schema, err := s.schemas.Schema(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve schema: %w", err)
	}

	variant := attendance.DetectVariant(schema)
	if !variant.Supported() {
		slog.Warn("Event variant unsupported, skipping mapping refresh",
			"error", attendance.ErrUnsupportedEventVariant,
			"event_columns", schema.EventColumns.Names(),
		)
		return nil
	}

	s.Invalidate()
	_, err = s.State(ctx, schema, variant)
	return err
}

func (s *MappingServiceImpl) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}
