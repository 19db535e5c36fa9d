// Package server exposes the LINE webhook and the operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kipper0508/escape-bot/internal/daemon"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/metrics"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
)

// MaxBodyBytes caps the webhook request body.
const MaxBodyBytes = 1 << 20

// CommandHandler runs a parsed command and returns the reply text.
type CommandHandler interface {
	Handle(ctx context.Context, creator model.Creator, cmd parser.Command) string
}

// Replier answers an inbound event through its reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Config configures the webhook.
type Config struct {
	ChannelSecret string
	// GroupOnly ignores commands from direct chats.
	GroupOnly bool
	Version   string
	// Concurrency bounds how many events of one webhook batch run at once.
	Concurrency int
}

// Server routes HTTP requests.
type Server struct {
	cfg     Config
	router  chi.Router
	parser  *parser.Parser
	handler CommandHandler
	replier Replier
	health  *daemon.HealthChecker
	metrics *metrics.Metrics
}

// New creates the server and its routes.
func New(cfg Config, p *parser.Parser, h CommandHandler, r Replier, health *daemon.HealthChecker, m *metrics.Metrics) *Server {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if health == nil {
		health = daemon.NewHealthChecker(cfg.Version)
	}

	s := &Server{
		cfg:     cfg,
		parser:  p,
		handler: h,
		replier: r,
		health:  health,
		metrics: m,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/", s.handleIndex)
	router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	router.Post("/webhook", s.handleWebhook)

	return router
}

// requestLogger logs each request and records its latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.HTTPDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
				Observe(elapsed.Seconds())
		}
		logging.DebugContext(ctx, "http request",
			"method", r.Method,
			"route", route,
			logging.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logging.KeyDuration, elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "escape-bot",
		"version":   s.cfg.Version,
		"endpoints": []string{"POST /webhook", "GET /health", "GET /metrics"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())
	code := http.StatusOK
	if status.Status != daemon.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", logging.KeyError, err)
	}
}
