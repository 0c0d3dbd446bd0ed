// Package httpapi exposes one counter controller over JSON HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/blockberries/counterberry/controller"
)

// Counter is the controller surface served over HTTP
type Counter interface {
	Snapshot() controller.Snapshot
	CanMutate() bool
	CanRefresh() bool
	CanDecrypt() bool
	Mutate(ctx context.Context, delta int64) error
	RefreshHandle(ctx context.Context) error
	Decrypt(ctx context.Context) error
}

// Ensure *controller.Controller implements Counter
var _ Counter = (*controller.Controller)(nil)

// Server routes HTTP requests to a Counter
type Server struct {
	counter  Counter
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithGatherer serves gatherer on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server for counter
func New(counter Counter, opts ...Option) *Server {
	s := &Server{counter: counter, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "httpapi").Logger()
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/counter", func(api chi.Router) {
		api.Get("/", s.getCounter)
		api.Post("/mutate", s.mutate)
		api.Post("/refresh", s.refresh)
		api.Post("/decrypt", s.decrypt)
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
