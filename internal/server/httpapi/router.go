// Package httpapi is the REST boundary of the server: routing, bearer-token
// authentication, request binding and the mapping of service errors to
// HTTP statuses.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Places       PlaceService
	Users        UserService
	Verifier     TokenVerifier
	Logger       logging.Logger
	MaxImageSize int64
	// Metrics exposes GET /metrics.
	Metrics bool
}

// NewRouter mounts the API under /api.
//
//	GET    /api/users
//	POST   /api/users/signup
//	POST   /api/users/login
//	GET    /api/places/{pid}
//	GET    /api/places/user/{uid}
//	POST   /api/places          (auth)
//	PUT    /api/places/{pid}    (auth)
//	DELETE /api/places/{pid}    (auth)
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger.With("module", "http")
	h := &handlers{
		places: cfg.Places,
		users:  cfg.Users,
		binder: newBinder(cfg.MaxImageSize),
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(observe(logger))
	r.Use(chimid.Recoverer)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/{pid}", h.getPlace)
			r.Get("/user/{uid}", h.listUserPlaces)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth(cfg.Verifier, logger))
				r.Post("/", h.createPlace)
				r.Put("/{pid}", h.updatePlace)
				r.Delete("/{pid}", h.deletePlace)
			})
		})
	})

	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, logger, errRouteNotFound)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
