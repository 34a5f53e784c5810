package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/mfrank/internal/refresh"
	"github.com/wonny/mfrank/pkg/logger"
)

// DefaultRefreshSchedule runs the scheduled refresh once a day
const DefaultRefreshSchedule = "@every 24h"

// Runner runs one blocking refresh
type Runner interface {
	RunFrom(ctx context.Context, source refresh.Source, limit int) (*refresh.RunReport, error)
}

// RefreshJob recomputes fund metrics on a schedule
// ⭐ SSOT: 정기 갱신 스케줄은 이 Job에서만
type RefreshJob struct {
	runner   Runner
	schedule string
	limit    int
	logger   *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(runner Runner, schedule string, limit int, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &RefreshJob{
		runner:   runner,
		schedule: schedule,
		limit:    limit,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "fund_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// MaxRetries disables scheduler retries; the next tick is the retry
func (j *RefreshJob) MaxRetries() int {
	return 0
}

// Run executes one scheduled refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.WithField("limit", j.limit).Info("Starting scheduled refresh")

	report, err := j.runner.RunFrom(ctx, refresh.SourceScheduled, j.limit)
	if err != nil {
		return fmt.Errorf("scheduled refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  report.ID,
		"outcome": report.Outcome,
		"created": report.Created,
		"updated": report.Updated,
		"ok":      report.Succeeded(),
		"failed":  report.FailedTotal(),
	}).Info("Scheduled refresh completed")

	return nil
}
