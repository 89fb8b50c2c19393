package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGrantSweep stamps expired role assignments.
	TaskGrantSweep = "rbac:grant_sweep"
)

// NewGrantSweepTask constructs an Asynq task for the expiry sweep. The task
// carries no payload; a run always sweeps everything that has expired.
func NewGrantSweepTask() *asynq.Task {
	return asynq.NewTask(TaskGrantSweep, nil)
}
