package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grantAt(repo *mockRepo, userID, roleID int64, expiresAt *time.Time) {
	repo.nextID++
	repo.assignments = append(repo.assignments, Assignment{
		ID:         repo.nextID,
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: testNow.Add(-time.Hour),
		ExpiresAt:  expiresAt,
	})
}

func newResolverFixture() (*Resolver, *mockRepo) {
	repo := newMockRepo()
	repo.addRole(1, "agent", 50, true)
	repo.addRole(2, "supervisor", 20, true)
	repo.addPermission(10, "reservations.view")
	repo.addPermission(11, "reservations.edit")
	repo.bind(1, 10)
	repo.bind(2, 10)
	repo.bind(2, 11)
	return NewResolver(repo, nil), repo
}

func TestHasPermission(t *testing.T) {
	resolver, repo := newResolverFixture()
	ctx := context.Background()
	grantAt(repo, 100, 1, nil)

	ok, err := resolver.HasPermission(ctx, 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasPermission(ctx, 100, "reservations.edit", testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionUnknownUserFailsClosed(t *testing.T) {
	resolver, _ := newResolverFixture()

	// Never an error for a user that simply does not exist.
	ok, err := resolver.HasPermission(context.Background(), 424242, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredAssignmentIsNeverEffective(t *testing.T) {
	resolver, repo := newResolverFixture()
	ctx := context.Background()

	// Expired one second ago, never revoked.
	expiry := testNow.Add(-time.Second)
	grantAt(repo, 100, 1, &expiry)

	ok, err := resolver.HasPermission(ctx, 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	perms, err := resolver.EffectivePermissions(ctx, 100, testNow)
	require.NoError(t, err)
	assert.Empty(t, perms)

	// The same assignment was effective a minute before the expiry.
	ok, err = resolver.HasPermission(ctx, 100, "reservations.view", testNow.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEffectivePermissionsDeduplicates(t *testing.T) {
	resolver, repo := newResolverFixture()
	grantAt(repo, 100, 1, nil)
	grantAt(repo, 100, 2, nil)

	// Both roles grant reservations.view; the union reports it once.
	perms, err := resolver.EffectivePermissions(context.Background(), 100, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"reservations.edit", "reservations.view"}, perms)
}

func TestEffectiveAccessLevelMinimumWins(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.addRole(3, "duty-manager", 10, true)
	repo.addRole(4, "trainee", 40, true)
	repo.addRole(5, "admin", 5, true)

	// Levels {10, 40, 5}: lower is more privileged, so 5 wins.
	grantAt(repo, 100, 3, nil)
	grantAt(repo, 100, 4, nil)
	grantAt(repo, 100, 5, nil)

	level, err := resolver.EffectiveAccessLevel(context.Background(), 100, testNow)
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, 5, *level)
}

func TestEffectiveAccessLevelAbsentWithoutRoles(t *testing.T) {
	resolver, _ := newResolverFixture()

	// Nil sentinel, not zero: zero would read as a valid (very high) level.
	level, err := resolver.EffectiveAccessLevel(context.Background(), 100, testNow)
	require.NoError(t, err)
	assert.Nil(t, level)
}

func TestDeactivatedRoleGrantsNothing(t *testing.T) {
	resolver, repo := newResolverFixture()
	ctx := context.Background()
	grantAt(repo, 100, 2, nil)

	perms, err := resolver.EffectivePermissions(ctx, 100, testNow)
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	// Deactivation strips permissions immediately without touching rows.
	role := repo.roles[2]
	role.IsActive = false
	repo.roles[2] = role

	perms, err = resolver.EffectivePermissions(ctx, 100, testNow)
	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.Len(t, repo.assignments, 1)

	// Reactivation restores access through the same assignment.
	role.IsActive = true
	repo.roles[2] = role
	ok, err := resolver.HasPermission(ctx, 100, "reservations.edit", testNow)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeactivatedUserFailsClosed(t *testing.T) {
	resolver, repo := newResolverFixture()
	grantAt(repo, 100, 1, nil)
	repo.inactiveUsers[100] = true

	ok, err := resolver.HasPermission(context.Background(), 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	level, err := resolver.EffectiveAccessLevel(context.Background(), 100, testNow)
	require.NoError(t, err)
	assert.Nil(t, level)
}

func TestRevokedAssignmentIsExcluded(t *testing.T) {
	resolver, repo := newResolverFixture()
	grantAt(repo, 100, 1, nil)
	revokedAt := testNow.Add(-time.Minute)
	repo.assignments[0].RevokedAt = &revokedAt

	ok, err := resolver.HasPermission(context.Background(), 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweepMarkerDoesNotAffectResolution(t *testing.T) {
	resolver, repo := newResolverFixture()
	expiry := testNow.Add(-time.Second)
	grantAt(repo, 100, 1, &expiry)

	// Unswept and swept expired rows resolve identically.
	ok, err := resolver.HasPermission(context.Background(), 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	sweptAt := testNow
	repo.assignments[0].SweptAt = &sweptAt
	ok, err = resolver.HasPermission(context.Background(), 100, "reservations.view", testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolverPropagatesInfrastructureErrors(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.listAssignmentsErr = errors.New("connection refused")

	// Callers must treat this as deny, so the error is surfaced, not
	// swallowed into a false.
	_, err := resolver.HasPermission(context.Background(), 100, "reservations.view", testNow)
	assert.Error(t, err)

	_, err = resolver.EffectivePermissions(context.Background(), 100, testNow)
	assert.Error(t, err)

	_, err = resolver.EffectiveAccessLevel(context.Background(), 100, testNow)
	assert.Error(t, err)
}
