package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/voyage-res/voyage-res/internal/jobs"
	"github.com/voyage-res/voyage-res/internal/rbac"
)

type sweepRepo struct {
	swept    int64
	sweepErr error
	gotNow   time.Time
	calls    int
}

func (r *sweepRepo) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	return rbac.Role{}, rbac.ErrRoleNotFound
}

func (r *sweepRepo) InsertAssignment(ctx context.Context, a rbac.Assignment, now time.Time) (rbac.Assignment, error) {
	return rbac.Assignment{}, errors.New("not implemented")
}

func (r *sweepRepo) RevokeAssignment(ctx context.Context, userID, roleID int64, at time.Time) error {
	return errors.New("not implemented")
}

func (r *sweepRepo) ListAssignments(ctx context.Context, userID int64) ([]rbac.Assignment, error) {
	return nil, nil
}

func (r *sweepRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	r.calls++
	r.gotNow = now
	if r.sweepErr != nil {
		return 0, r.sweepErr
	}
	return r.swept, nil
}

type sweepIdentity struct{}

func (sweepIdentity) UserExists(ctx context.Context, id int64) (bool, error) {
	return true, nil
}

func newSweepJob(repo *sweepRepo) *GrantSweepJob {
	svc := rbac.NewAssignmentService(repo, sweepIdentity{}, nil, nil)
	job := NewGrantSweepJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return job
}

func TestGrantSweepHandle(t *testing.T) {
	repo := &sweepRepo{swept: 3}
	job := newSweepJob(repo)

	err := job.Handle(context.Background(), NewGrantSweepTask())

	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), repo.gotNow)
}

func TestGrantSweepHandlePropagatesError(t *testing.T) {
	repo := &sweepRepo{sweepErr: errors.New("database down")}
	job := newSweepJob(repo)

	err := job.Handle(context.Background(), NewGrantSweepTask())

	require.Error(t, err)
	assert.Equal(t, 1, repo.calls)
}
