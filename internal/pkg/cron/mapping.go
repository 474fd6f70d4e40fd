package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type MappingJobs struct {
	mapping  attendance.MappingService
	interval time.Duration
}

// NewMappingJobs refreshes the polarity mapping every interval, which should
// match the mapping cache TTL.
func NewMappingJobs(mapping attendance.MappingService, interval time.Duration) *MappingJobs {
	return &MappingJobs{
		mapping:  mapping,
		interval: interval,
	}
}

func (j *MappingJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("refresh_polarity_mapping", j.interval, j.RefreshMapping)
}

func (j *MappingJobs) RefreshMapping(ctx context.Context) error {
	return j.mapping.Refresh(ctx)
}
