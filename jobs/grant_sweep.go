package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/voyage-res/voyage-res/internal/jobs"
	"github.com/voyage-res/voyage-res/internal/rbac"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// GrantSweepJob stamps role assignments whose expiry has passed. The stamp is
// bookkeeping only; permission resolution recomputes effectiveness from the
// raw timestamps on every query, so a missed run never grants stale access.
type GrantSweepJob struct {
	Assignments *rbac.AssignmentService
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewGrantSweepJob wires dependencies for the sweep handler.
func NewGrantSweepJob(assignments *rbac.AssignmentService, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantSweepJob {
	return &GrantSweepJob{
		Assignments: assignments,
		Logger:      logger,
		Metrics:     metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskGrantSweep tasks.
func (j *GrantSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Assignments == nil {
		return errors.New("grant sweep: handler not configured")
	}

	tracker := j.metrics().Track(TaskGrantSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	swept, err := j.Assignments.SweepExpired(ctx, now)
	if err != nil {
		resultErr = err
		j.logger().Error("grant sweep", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddSwept(swept)
	j.logger().Info("grant sweep finished", slog.Int64("swept", swept))
	return resultErr
}

func (j *GrantSweepJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *GrantSweepJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *GrantSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics == nil {
		return defaultJobMetrics
	}
	return j.Metrics
}
