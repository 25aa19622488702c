package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/securegpt/rag-gateway/app"
	"github.com/securegpt/rag-gateway/models"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.Live)
	r.Get("/readyz", deps.HealthHandler.Ready)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", deps.AuthHandler.Login)

		// Identity
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/auth/me", deps.AuthHandler.Me)
		})

		// User management
		r.Route("/users", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequirePermission(models.PermManageUsers))
			r.Get("/", deps.UserHandler.List)
			r.Post("/", deps.UserHandler.Create)
			r.Get("/{userID}", deps.UserHandler.Get)
			r.Patch("/{userID}", deps.UserHandler.Update)

			// Deleting accounts is reserved for superadmins.
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireRole(models.RoleSuperAdmin))
				r.Delete("/{userID}", deps.UserHandler.Delete)
			})
		})

		// Documents: ownership, visibility, and ACL
		r.Route("/documents", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", deps.DocumentHandler.List)
			r.Get("/{docID}", deps.DocumentHandler.Get)
			r.Patch("/{docID}/visibility", deps.DocumentHandler.UpdateVisibility)
			r.Delete("/{docID}", deps.DocumentHandler.Delete)

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequirePermission(models.PermIngestDocument))
				r.Post("/", deps.DocumentHandler.Register)
			})

			// Grant administration is admin territory
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
				r.Post("/{docID}/grants", deps.DocumentHandler.Grant)
				r.Delete("/{docID}/grants", deps.DocumentHandler.Revoke)
			})
		})

		// Model catalog and entitlements
		r.Route("/models", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", deps.ModelHandler.List)

			// Registering catalog entries needs manage_models (superadmin);
			// entitlement grants are admin territory.
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequirePermission(models.PermManageModels))
				r.Post("/", deps.ModelHandler.Register)
			})

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
				r.Post("/{modelID}/grants", deps.ModelHandler.Grant)
				r.Delete("/{modelID}/grants", deps.ModelHandler.Revoke)
			})
		})

		// Chat completions
		r.Route("/chat", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/completions", deps.ChatHandler.Complete)
			r.Get("/models", deps.ChatHandler.Models)
		})

		// Audit trail
		r.Route("/audit", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequirePermission(models.PermViewSystemLogs))
			r.Get("/logs", deps.AuditHandler.List)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not_found","message":"Route not found"}`))
	})

	return r
}
