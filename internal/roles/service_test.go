package roles

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyage-res/voyage-res/internal/rbac"
	"github.com/voyage-res/voyage-res/internal/shared"
)

type mockRepository struct {
	roles  map[int64]*Role
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{roles: make(map[int64]*Role), nextID: 1}
}

func (m *mockRepository) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (m *mockRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, rbac.ErrRoleNotFound
	}
	return *role, nil
}

func (m *mockRepository) CreateRole(ctx context.Context, name, description string, level int) (Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return Role{}, ErrNameTaken
		}
	}
	role := Role{ID: m.nextID, Name: name, Description: description, Level: level, IsActive: true}
	m.roles[m.nextID] = &role
	m.nextID++
	return role, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, name, description string, level int) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, rbac.ErrRoleNotFound
	}
	role.Name, role.Description, role.Level = name, description, level
	return *role, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	role, ok := m.roles[id]
	if !ok {
		return rbac.ErrRoleNotFound
	}
	role.IsActive = active
	return nil
}

func (m *mockRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return rbac.ErrRoleNotFound
	}
	delete(m.roles, id)
	return nil
}

type mockCache struct {
	invalidated []int64
}

func (m *mockCache) Invalidate(ctx context.Context, roleID int64) error {
	m.invalidated = append(m.invalidated, roleID)
	return nil
}

func TestCreateRoleValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		role  string
		level int
	}{
		{"name too short", "ab", 10},
		{"name too long", strings.Repeat("x", 51), 10},
		{"level zero", "agent", 0},
		{"level above max", "agent", 101},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRole(ctx, tc.role, "", tc.level)
			assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		})
	}

	role, err := svc.CreateRole(ctx, "  agent  ", "front desk", 50)
	require.NoError(t, err)
	assert.Equal(t, "agent", role.Name)
	assert.True(t, role.IsActive)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, "agent", "", 50)
	require.NoError(t, err)

	_, err = svc.CreateRole(ctx, "agent", "", 40)
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateRoleBoundsLevel(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "agent", "", 50)
	require.NoError(t, err)

	_, err = svc.UpdateRole(ctx, role.ID, "agent", "", 101)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	updated, err := svc.UpdateRole(ctx, role.ID, "senior-agent", "", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Level)
}

func TestDeleteRoleInvalidatesCache(t *testing.T) {
	repo := newMockRepository()
	cache := &mockCache{}
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "agent", "", 50)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(ctx, role.ID))
	assert.Equal(t, []int64{role.ID}, cache.invalidated)

	err = svc.DeleteRole(ctx, role.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type failingCache struct {
	calls int
}

func (f *failingCache) Invalidate(ctx context.Context, roleID int64) error {
	f.calls++
	return errors.New("redis unavailable")
}

func TestDeleteRoleLogsFailedInvalidation(t *testing.T) {
	repo := newMockRepository()
	cache := &failingCache{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(repo, cache, logger)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "agent", "", 50)
	require.NoError(t, err)

	// The delete itself succeeds; the stale cache entry is only a warning.
	require.NoError(t, svc.DeleteRole(ctx, role.ID))
	assert.Equal(t, 1, cache.calls)
	assert.Contains(t, buf.String(), "invalidate binding cache")
	assert.Contains(t, buf.String(), "redis unavailable")
}
