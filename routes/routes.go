package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/account-service/app"
	"github.com/upb/account-service/middleware"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	users := deps.UserHandler
	authn := deps.AuthMiddleware

	r.Route("/api/users", func(r chi.Router) {
		// Public routes
		r.Post("/register", users.HandleRegister)
		r.Post("/login", users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)

			r.With(authn.RequireRole(models.RoleAdmin)).Get("/", users.HandleList)
			r.Get("/me", users.HandleMe)
			r.With(authn.RequireOwnerOrAdmin("id")).Get("/{id}", users.HandleGet)
			r.With(authn.RequireOwnerOrAdmin("id")).Put("/{id}/status", users.HandleSetStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
