package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/marlonjr14/pokemon-api/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps groups what NewRouter needs besides the handler
type RouterDeps struct {
	Tokens   middleware.TokenVerifier
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter wires the HTTP surface. Mutating catalog routes are wrapped with
// the auth middleware; everything else is public.
func NewRouter(h *Handler, deps RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler)
	}

	requireAuth := middleware.AuthMiddleware(deps.Tokens, h.log)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/api", h.Index).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/pokemon", h.ListPokemon).Methods(http.MethodGet)
	api.HandleFunc("/pokemon/search", h.SearchPokemon).Methods(http.MethodGet)
	api.HandleFunc("/pokemon/{id:[0-9]+}", h.GetPokemon).Methods(http.MethodGet)

	// Protected routes
	api.Handle("/pokemon", requireAuth(http.HandlerFunc(h.CreatePokemon))).Methods(http.MethodPost)
	api.Handle("/pokemon/{id:[0-9]+}", requireAuth(http.HandlerFunc(h.UpdatePokemon))).Methods(http.MethodPut)
	api.Handle("/pokemon/{id:[0-9]+}", requireAuth(http.HandlerFunc(h.DeletePokemon))).Methods(http.MethodDelete)

	return middleware.RequestLogger(h.log)(middleware.Recovery(h.log)(r))
}
