package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"salesadmin/domain/core/entities"
	"salesadmin/interfaces/http/rest/handlers"
	"salesadmin/interfaces/http/rest/middleware"
	"salesadmin/pkg/auth"
	"salesadmin/pkg/errors"
)

// ReadinessCheck reports whether the backing services can take traffic
type ReadinessCheck func(ctx context.Context) error

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth         *handlers.AuthHandler
	Products     *handlers.ProductHandler
	Hierarchy    *handlers.HierarchyHandler
	Imports      *handlers.ImportHandler
	Employees    *handlers.RecordHandler[*entities.Employee]
	Offers       *handlers.RecordHandler[*entities.Offer]
	Catalogs     *handlers.RecordHandler[*entities.Catalog]
	Appointments *handlers.RecordHandler[*entities.Appointment]
}

// RouterConfig holds router options
type RouterConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	handlers Handlers
	tokens   middleware.TokenValidator
	errors   *errors.ErrorHandler
	ready    ReadinessCheck
	config   RouterConfig
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	h Handlers,
	tokens middleware.TokenValidator,
	errHandler *errors.ErrorHandler,
	ready ReadinessCheck,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		handlers: h,
		tokens:   tokens,
		errors:   errHandler,
		ready:    ready,
		config:   config,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errors.Middleware)
	if rt.config.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(rt.config.RequestTimeout))
	}

	if rt.config.EnableCORS {
		origins := rt.config.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", rt.handlers.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, rt.errors))
			r.Use(middleware.RequireRole(rt.errors, auth.RoleAdmin))

			r.Route("/products", func(r chi.Router) {
				products := rt.handlers.Products
				r.Get("/", products.ListProducts)
				r.Post("/", products.CreateProduct)
				r.Delete("/", products.DeleteAllProducts)
				r.Get("/item", products.GetProduct)
				r.Put("/item", products.UpdateProduct)
				r.Delete("/item", products.DeleteProduct)
				r.Post("/import", rt.handlers.Imports.ImportProducts)
			})

			r.Route("/hierarchy", func(r chi.Router) {
				hierarchy := rt.handlers.Hierarchy
				r.Get("/", hierarchy.ListLevel)
				r.Delete("/{company}", hierarchy.DeleteSubtree)
				r.Delete("/{company}/{category}", hierarchy.DeleteSubtree)
				r.Delete("/{company}/{category}/{subcategory}", hierarchy.DeleteSubtree)
			})

			r.Post("/migrations/flat-products", rt.handlers.Imports.MigrateFlatProducts)

			r.Route("/employees", rt.handlers.Employees.Routes)
			r.Route("/appointments", rt.handlers.Appointments.Routes)
			r.Route("/offers", func(r chi.Router) {
				rt.handlers.Offers.Routes(r)
				r.Post("/{id}/images", rt.handlers.Offers.Upload(handlers.AppendOfferImage))
			})
			r.Route("/catalogs", func(r chi.Router) {
				rt.handlers.Catalogs.Routes(r)
				r.Post("/{id}/file", rt.handlers.Catalogs.Upload(handlers.SetCatalogFile))
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports not ready while the document store is unreachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.HandleStatus(w, req, http.StatusServiceUnavailable, "not ready")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
