package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voyage-res/voyage-res/internal/platform/httpx"
	"github.com/voyage-res/voyage-res/internal/shared"
)

// Handler exposes the administrative RBAC endpoints: role-permission
// bindings, user-role grants and the resolver's read queries.
type Handler struct {
	logger      *slog.Logger
	bindings    *BindingService
	assignments *AssignmentService
	resolver    *Resolver
	rbac        Middleware
	validate    *validator.Validate
	clock       func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, bindings *BindingService, assignments *AssignmentService, resolver *Resolver, rbac Middleware) *Handler {
	return &Handler{
		logger:      logger,
		bindings:    bindings,
		assignments: assignments,
		resolver:    resolver,
		rbac:        rbac,
		validate:    validator.New(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// MountRoleRoutes registers binding routes under a role subtree.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesView))
		r.Get("/{roleID}/permissions", h.listRolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesEdit))
		r.Post("/{roleID}/permissions", h.assignPermissions)
		r.Post("/{roleID}/permissions/{permissionID}", h.assignPermission)
		r.Delete("/{roleID}/permissions/{permissionID}", h.revokePermission)
	})
}

// MountUserRoutes registers grant and resolver routes under a user subtree.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermGrantsView))
		r.Get("/{userID}/roles", h.listAssignments)
		r.Get("/{userID}/permissions", h.effectivePermissions)
		r.Get("/{userID}/access-level", h.effectiveAccessLevel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermGrantsEdit))
		r.Post("/{userID}/roles", h.assignRole)
		r.Post("/{userID}/roles/bulk", h.assignRoles)
		r.Delete("/{userID}/roles/{roleID}", h.revokeRole)
	})
}

func (h *Handler) assignPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.bindings.AssignPermission(r.Context(), roleID, permissionID); err != nil {
		h.respondError(w, "assign permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) assignPermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	var req assignPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.bindings.AssignPermissions(r.Context(), roleID, req.PermissionIDs); err != nil {
		h.respondError(w, "assign permissions bulk", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.bindings.RevokePermission(r.Context(), roleID, permissionID); err != nil {
		h.respondError(w, "revoke permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	perms, err := h.bindings.ListPermissionsForRole(r.Context(), roleID)
	if err != nil {
		h.respondError(w, "list role permissions", err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

type assignRoleRequest struct {
	RoleID    int64      `json:"role_id" validate:"required,gt=0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type assignmentResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	RoleID     int64      `json:"role_id"`
	AssignedBy *int64     `json:"assigned_by,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.assignments.AssignRole(r.Context(), userID, req.RoleID, actorID(r), req.ExpiresAt)
	if err != nil {
		h.respondError(w, "assign role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

type assignRolesRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) assignRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req assignRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	results, err := h.assignments.AssignRoles(r.Context(), userID, req.RoleIDs, actorID(r))
	if err != nil {
		h.respondError(w, "assign roles bulk", err)
		return
	}
	httpx.JSON(w, http.StatusMultiStatus, map[string]any{"results": results})
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.assignments.RevokeRole(r.Context(), userID, roleID); err != nil {
		h.respondError(w, "revoke role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	assignments, err := h.assignments.History(r.Context(), userID)
	if err != nil {
		h.respondError(w, "list assignments", err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	perms, err := h.resolver.EffectivePermissions(r.Context(), userID, h.clock())
	if err != nil {
		h.respondError(w, "effective permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) effectiveAccessLevel(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	level, err := h.resolver.EffectiveAccessLevel(r.Context(), userID, h.clock())
	if err != nil {
		h.respondError(w, "effective access level", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"access_level": level})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func toAssignmentResponse(a Assignment) assignmentResponse {
	return assignmentResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		RoleID:     a.RoleID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
		ExpiresAt:  a.ExpiresAt,
		RevokedAt:  a.RevokedAt,
	}
}

func actorID(r *http.Request) *int64 {
	if actor := shared.ActorFromContext(r.Context()); actor != nil {
		id := actor.UserID
		return &id
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Path", param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
