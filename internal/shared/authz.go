package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermGrantsView = "grants.view"
	PermGrantsEdit = "grants.edit"
)

// Reservation domain permissions.
const (
	PermReservationsView = "reservations.view"
	PermReservationsEdit = "reservations.edit"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermPermissionsEdit,
		PermGrantsView,
		PermGrantsEdit,
	}
}
