package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/voyage-res/voyage-res/internal/observability"
	"github.com/voyage-res/voyage-res/internal/permissions"
	"github.com/voyage-res/voyage-res/internal/rbac"
	"github.com/voyage-res/voyage-res/internal/reservations"
	"github.com/voyage-res/voyage-res/internal/roles"
	"github.com/voyage-res/voyage-res/internal/users"
	"github.com/voyage-res/voyage-res/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	RolesHandler        *roles.Handler
	PermissionsHandler  *permissions.Handler
	UsersHandler        *users.Handler
	RBACHandler         *rbac.Handler
	ReservationsHandler *reservations.Handler
	JobsHandler         *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Voyage defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/roles", func(r chi.Router) {
			params.RolesHandler.MountRoutes(r)
			params.RBACHandler.MountRoleRoutes(r)
		})
		r.Route("/permissions", func(r chi.Router) {
			params.PermissionsHandler.MountRoutes(r)
		})
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
			params.RBACHandler.MountUserRoutes(r)
		})
		r.Route("/reservations", func(r chi.Router) {
			params.ReservationsHandler.MountRoutes(r)
		})
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
