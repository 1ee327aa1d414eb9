package adapthttp

import (
	"context"
	"net/http"
	"time"

	"weighttracker/internal/app"
	"weighttracker/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	weight      *app.WeightService
	charts      *app.ChartsService
	authSvc     *app.AuthService
	metrics     *metrics.Manager
	gatherer    prometheus.Gatherer
	oidcConfig  OIDCConfig
	webDir      string
	disableAuth bool
}

// New creates a Server wired to the given application services. An empty
// webDir serves the API only.
func New(ws *app.WeightService, cs *app.ChartsService, authSvc *app.AuthService, webDir string) *Server {
	return &Server{weight: ws, charts: cs, authSvc: authSvc, webDir: webDir}
}

// WithMetrics instruments every request with m. A non-nil gatherer is also
// exposed on /metrics.
func (s *Server) WithMetrics(m *metrics.Manager, gatherer prometheus.Gatherer) *Server {
	s.metrics = m
	s.gatherer = gatherer
	return s
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithoutAuth disables session checks regardless of configuration. Used by tests.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

func (s *Server) authRequired() bool {
	if s.disableAuth || s.authSvc == nil {
		return false
	}
	return s.authSvc.PasswordEnabled() || s.oidcConfig.Enabled
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(panicRecovery(s.metrics))
	r.Use(logRequest)
	if s.metrics != nil {
		r.Use(requestMetrics(s.metrics))
	}

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.authSvc != nil {
		api.HandleFunc("/auth/config", s.handleAuthConfig).Methods(http.MethodGet)
		api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
		api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
		api.HandleFunc("/auth/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
		api.HandleFunc("/auth/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)
	}

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/weight", s.handleListWeights).Methods(http.MethodGet)
	protected.HandleFunc("/weight", s.handleCreateWeight).Methods(http.MethodPost)
	protected.HandleFunc("/weight/{id}", s.handleGetWeight).Methods(http.MethodGet)
	protected.HandleFunc("/weight/{id}", s.handleUpdateWeight).Methods(http.MethodPut)
	protected.HandleFunc("/weight/{id}", s.handleDeleteWeight).Methods(http.MethodDelete)
	protected.HandleFunc("/charts/summary", s.handleChartsSummary).Methods(http.MethodGet)
	protected.HandleFunc("/charts/daily", s.handleChartsDaily).Methods(http.MethodGet)

	if s.webDir != "" {
		r.PathPrefix("/").Handler(spaFromDisk(s.webDir)).Methods(http.MethodGet, http.MethodHead)
	}

	return withNoCache(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.weight.Ping(ctx); err != nil {
		log.WithError(err).Warn("health: store unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "store": "up"})
}
