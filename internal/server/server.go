package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/levelgym/internal/metrics"
	"github.com/claude/levelgym/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	log      *slog.Logger
	apiKey   string
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	mcp      http.Handler
	whois    whoIser
	router   chi.Router
}

type Option func(*Server)

// WithMetrics records request metrics in m and serves g on /metrics.
func WithMetrics(m *metrics.Manager, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithMCP mounts an MCP transport on /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithTailscale resolves callers through WhoIs instead of the dev identity.
func WithTailscale(lc whoIser) Option {
	return func(s *Server) { s.whois = lc }
}

// New creates a new Server with all routes configured.
func New(st *store.Store, apiKey string, log *slog.Logger, opts ...Option) *Server {
	s := &Server{
		store:  st,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Discard()
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)
	if s.whois != nil {
		s.router.Use(TailscaleIdentity(s.whois, s.log))
	} else {
		s.router.Use(DevIdentity)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		r.Get("/state", s.handleExportState)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Put("/state", s.handleImportState)
			r.Delete("/state", s.handleResetState)
		})

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleAddExercise)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Post("/exercises/{id}/complete", s.handleCompleteExercise)

		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleAddWorkout)
		r.Put("/workouts/{id}", s.handleUpdateWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleAddSession)

		r.Get("/stats", s.handleStats)

		r.Get("/achievements", s.handleListAchievements)
		r.Get("/achievements/summary", s.handleAchievementSummary)
		r.Post("/achievements/{id}/unlock", s.handleUnlockAchievement)
	})

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.mcp != nil {
		s.router.Handle("/mcp", s.mcp)
	}
}
