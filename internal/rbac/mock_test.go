package rbac

import (
	"context"
	"time"

	"github.com/voyage-res/voyage-res/internal/shared"
)

type bindingKeyPair struct {
	roleID       int64
	permissionID int64
}

// mockRepo is a map-backed stand-in for Repository. It mirrors the schema's
// behavior, in particular the partial unique index over live assignment rows.
type mockRepo struct {
	roles         map[int64]Role
	permissions   map[int64]Permission
	bindings      map[bindingKeyPair]bool
	assignments   []Assignment
	inactiveUsers map[int64]bool
	nextID        int64

	// Error injection
	getRoleErr         error
	insertBindingErr   error
	insertBindingsErr  error
	listAssignmentsErr error
	listNamesErr       error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		roles:         make(map[int64]Role),
		permissions:   make(map[int64]Permission),
		bindings:      make(map[bindingKeyPair]bool),
		inactiveUsers: make(map[int64]bool),
	}
}

func (m *mockRepo) addRole(id int64, name string, level int, active bool) {
	m.roles[id] = Role{ID: id, Name: name, Level: level, IsActive: active}
}

func (m *mockRepo) addPermission(id int64, name string) {
	m.permissions[id] = Permission{ID: id, Name: name}
}

func (m *mockRepo) bind(roleID, permissionID int64) {
	m.bindings[bindingKeyPair{roleID, permissionID}] = true
}

func (m *mockRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	if m.getRoleErr != nil {
		return Role{}, m.getRoleErr
	}
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (m *mockRepo) GetRoles(ctx context.Context, ids []int64) ([]Role, error) {
	if m.getRoleErr != nil {
		return nil, m.getRoleErr
	}
	var roles []Role
	for _, id := range ids {
		if role, ok := m.roles[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (m *mockRepo) GetPermission(ctx context.Context, id int64) (Permission, error) {
	perm, ok := m.permissions[id]
	if !ok {
		return Permission{}, ErrPermissionNotFound
	}
	return perm, nil
}

func (m *mockRepo) CountPermissions(ctx context.Context, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := m.permissions[id]; ok {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) InsertBinding(ctx context.Context, roleID, permissionID int64) error {
	if m.insertBindingErr != nil {
		return m.insertBindingErr
	}
	key := bindingKeyPair{roleID, permissionID}
	if m.bindings[key] {
		return ErrAlreadyBound
	}
	m.bindings[key] = true
	return nil
}

func (m *mockRepo) InsertBindings(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if m.insertBindingsErr != nil {
		return m.insertBindingsErr
	}
	for _, pid := range permissionIDs {
		m.bindings[bindingKeyPair{roleID, pid}] = true
	}
	return nil
}

func (m *mockRepo) DeleteBinding(ctx context.Context, roleID, permissionID int64) error {
	key := bindingKeyPair{roleID, permissionID}
	if !m.bindings[key] {
		return ErrBindingNotFound
	}
	delete(m.bindings, key)
	return nil
}

func (m *mockRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	var perms []Permission
	for key := range m.bindings {
		if key.roleID == roleID {
			perms = append(perms, m.permissions[key.permissionID])
		}
	}
	return perms, nil
}

func (m *mockRepo) ListRolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	if m.listNamesErr != nil {
		return nil, m.listNamesErr
	}
	var names []string
	for key := range m.bindings {
		if key.roleID == roleID {
			names = append(names, m.permissions[key.permissionID].Name)
		}
	}
	return names, nil
}

// InsertAssignment mimics the schema: expired live rows are swept first,
// then the insert fails when a live row for the pair remains.
func (m *mockRepo) InsertAssignment(ctx context.Context, a Assignment, now time.Time) (Assignment, error) {
	for i := range m.assignments {
		existing := &m.assignments[i]
		if existing.UserID != a.UserID || existing.RoleID != a.RoleID {
			continue
		}
		if existing.RevokedAt != nil || existing.SweptAt != nil {
			continue
		}
		if existing.ExpiresAt != nil && !existing.ExpiresAt.After(now) {
			t := now
			existing.SweptAt = &t
			continue
		}
		return Assignment{}, ErrAlreadyAssigned
	}
	m.nextID++
	a.ID = m.nextID
	m.assignments = append(m.assignments, a)
	return a, nil
}

func (m *mockRepo) RevokeAssignment(ctx context.Context, userID, roleID int64, at time.Time) error {
	for i := range m.assignments {
		existing := &m.assignments[i]
		if existing.UserID != userID || existing.RoleID != roleID {
			continue
		}
		if existing.RevokedAt != nil {
			continue
		}
		if existing.ExpiresAt != nil && !existing.ExpiresAt.After(at) {
			continue
		}
		t := at
		existing.RevokedAt = &t
		return nil
	}
	return ErrAssignmentNotFound
}

func (m *mockRepo) ListAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	if m.listAssignmentsErr != nil {
		return nil, m.listAssignmentsErr
	}
	var out []Assignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListResolvableAssignments mirrors the users join: deactivated users have
// nothing to resolve, and revoked rows never reach the resolver.
func (m *mockRepo) ListResolvableAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	if m.listAssignmentsErr != nil {
		return nil, m.listAssignmentsErr
	}
	if m.inactiveUsers[userID] {
		return nil, nil
	}
	var out []Assignment
	for _, a := range m.assignments {
		if a.UserID == userID && a.RevokedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var swept int64
	for i := range m.assignments {
		existing := &m.assignments[i]
		if existing.SweptAt != nil || existing.RevokedAt != nil {
			continue
		}
		if existing.ExpiresAt != nil && !existing.ExpiresAt.After(now) {
			t := now
			existing.SweptAt = &t
			swept++
		}
	}
	return swept, nil
}

type mockIdentity struct {
	users map[int64]bool
	err   error
}

func (m *mockIdentity) UserExists(ctx context.Context, id int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.users[id], nil
}

type mockAudit struct {
	records []shared.AuditLog
}

func (m *mockAudit) Record(ctx context.Context, log shared.AuditLog) error {
	m.records = append(m.records, log)
	return nil
}
