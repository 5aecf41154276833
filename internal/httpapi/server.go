// Package httpapi exposes a market engine over HTTP.
//
// Every ledger operation is POST /v1/calls/{op} with a JSON body of
// arguments; the caller is named by the X-Bazaar-Principal header. Reads
// go straight to the engine's current state. Calls are handed to the
// engine's Run loop, so the loop must be running while the server is.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/metrics"
)

// PrincipalHeader names the caller of a request.
const PrincipalHeader = "X-Bazaar-Principal"

// maxBody bounds JSON request bodies. Content uploads use content.MaxSize.
const maxBody = 64 << 10

// Server routes HTTP requests to an engine.
type Server struct {
	engine  *engine.Engine
	content content.Store
	metrics *metrics.Metrics
	limiter *limiter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithContent enables the /v1/content routes.
func WithContent(c content.Store) Option {
	return func(s *Server) { s.content = c }
}

// WithMetrics enables /metrics and request counting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit throttles each caller to rps requests per second with the
// given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limiter = newLimiter(rps, burst, 0) }
}

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server for e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine: e,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe, s.throttle)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/calls/{op}", s.handleCall).Methods(http.MethodPost)
	v1.HandleFunc("/market", s.handleMarket).Methods(http.MethodGet)
	v1.HandleFunc("/stores", s.handleStores).Methods(http.MethodGet)
	v1.HandleFunc("/stores/{store_id:[0-9]+}", s.handleStore).Methods(http.MethodGet)
	v1.HandleFunc("/stores/{store_id:[0-9]+}/products", s.handleProducts).Methods(http.MethodGet)
	v1.HandleFunc("/stores/{store_id:[0-9]+}/products/{product_id:[0-9]+}", s.handleProduct).Methods(http.MethodGet)
	v1.HandleFunc("/wallets/{principal}", s.handleWallet).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	if s.content != nil {
		v1.HandleFunc("/content", s.handlePutContent).Methods(http.MethodPost)
		v1.HandleFunc("/content/{handle}", s.handleGetContent).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}
