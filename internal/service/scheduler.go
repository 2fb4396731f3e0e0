package service

import (
	"context"
	"time"

	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/validate"
)

// SchedulerService reads data-retention job information.
type SchedulerService interface {
	// NextRun returns nil when the backend has no valid date to report.
	NextRun(ctx context.Context) (*time.Time, error)
}

// SchedulerServiceImpl implements SchedulerService over the admin API.
type SchedulerServiceImpl struct{ api Doer }

// NewSchedulerService constructs a SchedulerService.
func NewSchedulerService(api Doer) *SchedulerServiceImpl { return &SchedulerServiceImpl{api: api} }

// NextRun implements SchedulerService.
func (s *SchedulerServiceImpl) NextRun(ctx context.Context) (*time.Time, error) {
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/scheduler/data-retention-next-run"})
	if err != nil {
		return nil, withOp("scheduler.next_run", err)
	}
	defer gateway.Drain(resp)
	return validate.NextRun(resp)
}
