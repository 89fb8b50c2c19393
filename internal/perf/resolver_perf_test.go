package perf

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/voyage-res/voyage-res/internal/rbac"
)

// staticRepo serves a sizeable but fixed grant set so measurements exercise
// the resolver's own filtering and dedup work, not I/O.
type staticRepo struct {
	assignments []rbac.Assignment
	roles       map[int64]rbac.Role
	perms       map[int64][]string
}

func newStaticRepo(roleCount int) *staticRepo {
	repo := &staticRepo{
		roles: make(map[int64]rbac.Role, roleCount),
		perms: make(map[int64][]string, roleCount),
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < roleCount; i++ {
		id := int64(i + 1)
		repo.roles[id] = rbac.Role{ID: id, Name: fmt.Sprintf("role-%d", id), Level: (i % 100) + 1, IsActive: true}
		repo.perms[id] = []string{
			fmt.Sprintf("module%d.view", i%8),
			fmt.Sprintf("module%d.edit", i%8),
		}
		a := rbac.Assignment{ID: id, UserID: 42, RoleID: id, AssignedAt: base}
		if i%3 == 0 {
			expires := base.Add(24 * time.Hour)
			a.ExpiresAt = &expires
		}
		repo.assignments = append(repo.assignments, a)
	}
	return repo
}

func (r *staticRepo) ListResolvableAssignments(_ context.Context, userID int64) ([]rbac.Assignment, error) {
	return r.assignments, nil
}

func (r *staticRepo) GetRoles(_ context.Context, ids []int64) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(ids))
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *staticRepo) ListRolePermissionNames(_ context.Context, roleID int64) ([]string, error) {
	return r.perms[roleID], nil
}

func TestResolverLatencyTarget(t *testing.T) {
	resolver := rbac.NewResolver(newStaticRepo(64), nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	const runs = 200
	samples := make([]time.Duration, 0, runs)
	for i := 0; i < runs; i++ {
		start := time.Now()
		if _, err := resolver.EffectivePermissions(context.Background(), 42, now); err != nil {
			t.Fatalf("resolve permissions: %v", err)
		}
		samples = append(samples, time.Since(start))
	}

	p95 := percentile95(samples)
	if p95 > 50*time.Millisecond {
		t.Fatalf("effective permission resolution too slow: p95=%s", p95)
	}
}

func BenchmarkEffectivePermissions(b *testing.B) {
	resolver := rbac.NewResolver(newStaticRepo(64), nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.EffectivePermissions(context.Background(), 42, now); err != nil {
			b.Fatalf("resolve permissions: %v", err)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted))*0.95) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
