package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"oldphonedeals/internal/config"
	"oldphonedeals/internal/http/handlers"
	middlewarex "oldphonedeals/internal/http/middleware"
	"oldphonedeals/internal/services/notify"
	"oldphonedeals/internal/services/views"
	"oldphonedeals/internal/session"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Config   config.Cfg
	Auth     handlers.Authenticator
	Sessions session.Store
	Views    *views.Manager
	Inbox    *notify.Inbox
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"env":          deps.Config.App.Env,
			"mountedViews": deps.Views.Mounted(),
		})
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.Login(deps.Auth, deps.Sessions))
		r.Post("/admin/login", handlers.AdminLogin(deps.Auth, deps.Sessions))
		r.Post("/logout", handlers.Logout(deps.Sessions, deps.Views))
	})

	// Session routes
	r.Group(func(r chi.Router) {
		r.Use(middlewarex.SessionAuth(deps.Sessions))

		r.Route("/views", func(r chi.Router) {
			r.Get("/", handlers.ListViews(deps.Views))
			r.Post("/", handlers.MountView(deps.Views))
			r.Post("/refresh", handlers.RefreshAll(deps.Views))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetView(deps.Views))
				r.Delete("/", handlers.UnmountView(deps.Views))
				r.Post("/page", handlers.SetPage(deps.Views))
				r.Post("/sort", handlers.SetSort(deps.Views))
				r.Post("/filter", handlers.SetFilter(deps.Views))
				r.Post("/refresh", handlers.RefreshView(deps.Views))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarex.AdminOnly)
			r.Get("/notifications", handlers.ListNotifications(deps.Inbox))
		})
	})

	return r
}
