package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bengkel-erp/bengkel-erp/internal/audit"
	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/billing"
	"github.com/bengkel-erp/bengkel-erp/internal/clients"
	"github.com/bengkel-erp/bengkel-erp/internal/dashboard"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/services"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/suppliers"
	"github.com/bengkel-erp/bengkel-erp/internal/observability"
	"github.com/bengkel-erp/bengkel-erp/internal/users"
	"github.com/bengkel-erp/bengkel-erp/internal/vehicles"
	"github.com/bengkel-erp/bengkel-erp/internal/workorders"
	"github.com/bengkel-erp/bengkel-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	ClientsHandler   *clients.Handler
	VehiclesHandler  *vehicles.Handler
	ServicesHandler  *services.Handler
	SuppliersHandler *suppliers.Handler
	InventoryHandler *inventory.Handler
	WorkOrderHandler *workorders.Handler
	BillingHandler   *billing.Handler
	DashboardHandler *dashboard.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	AuthMiddleware   auth.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Bengkel defaults.
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)
		api.Route("/users", params.UsersHandler.MountRoutes)
		api.Route("/clients", func(cr chi.Router) {
			params.ClientsHandler.MountRoutes(cr)
			params.VehiclesHandler.MountClientRoutes(cr)
		})
		api.Route("/vehicles", params.VehiclesHandler.MountRoutes)
		api.Route("/services", params.ServicesHandler.MountRoutes)
		api.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		api.Route("/inventory", params.InventoryHandler.MountRoutes)
		api.Route("/work-orders", params.WorkOrderHandler.MountRoutes)
		api.Route("/invoices", params.BillingHandler.MountInvoiceRoutes)
		api.Route("/payments", params.BillingHandler.MountPaymentRoutes)
		api.Route("/dashboard", params.DashboardHandler.MountRoutes)
		api.Route("/audit", params.AuditHandler.MountRoutes)
		if params.JobHandler != nil {
			api.Group(func(jr chi.Router) {
				jr.Use(params.AuthMiddleware.RequireAuth)
				jr.Use(params.AuthMiddleware.RequireRole(auth.RoleAdmin))
				jr.Route("/jobs", params.JobHandler.MountRoutes)
			})
		}
	})

	return r
}
