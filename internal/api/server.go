// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/core"
	"github.com/vrsandeep/vnshelf/internal/indexer"
	"github.com/vrsandeep/vnshelf/internal/queue"
	"github.com/vrsandeep/vnshelf/internal/store"
	"github.com/vrsandeep/vnshelf/internal/websocket"
)

// Server holds the dependencies for our API.
type Server struct {
	app      *core.App
	store    *store.Store
	registry *prometheus.Registry
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// App returns the application the server was built on.
func (s *Server) App() *core.App {
	return s.app
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registerAll(registry, catalog.Collectors(), indexer.Collectors(), queue.Collectors())

	return &Server{
		app:      app,
		store:    app.Store(),
		registry: registry,
	}
}

func registerAll(registry *prometheus.Registry, groups ...[]prometheus.Collector) {
	for _, group := range groups {
		registry.MustRegister(group...)
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics

	r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(s.app.WsHub(), w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/status", s.handleAuthStatus)
			r.Post("/init", s.handleInit)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/verify", s.handleVerify)
		})

		// Public read access
		r.Get("/vn", s.handleListVN)
		r.Get("/vn/{id}", s.handleGetVN)
		r.Get("/stats", s.handleGetStats)

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Post("/vn", s.handleCreateVN)
			r.Put("/vn/{id}", s.handleUpdateVN)
			r.Delete("/vn/{id}", s.handleDeleteVN)

			r.Post("/index/start", s.handleStartIndex)
			r.Get("/index/status", s.handleGetIndexStatus)

			r.Get("/config", s.handleGetConfig)
			r.Put("/config", s.handleUpdateConfig)

			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)
			})
		})
	})

	return r
}
