package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/videogate/videogate/internal/auth"
	"github.com/videogate/videogate/internal/broker"
	"github.com/videogate/videogate/internal/docs"
	"github.com/videogate/videogate/internal/metrics"
	"github.com/videogate/videogate/internal/options"
	"github.com/videogate/videogate/internal/ratelimit"
	"github.com/videogate/videogate/internal/remote"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Refresher interface {
	Refresh(ctx context.Context) (remote.Result, error)
}

type MessageHandler interface {
	Handle(ctx context.Context, sender broker.Sender, msg broker.Message) (any, error)
}

type Config struct {
	Pinger    Pinger
	Options   *options.Service
	Refresher Refresher
	Broker    MessageHandler
	Auth      *auth.Handler
	Metrics   *metrics.Metrics
	BaseURL   string
}

type Server struct {
	router    chi.Router
	pinger    Pinger
	options   *options.Service
	refresher Refresher
	broker    MessageHandler
	auth      *auth.Handler
	metrics   *metrics.Metrics
	limiters  []*ratelimit.Limiter
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))

	s := &Server{
		router:    r,
		pinger:    cfg.Pinger,
		options:   cfg.Options,
		refresher: cfg.Refresher,
		broker:    cfg.Broker,
		auth:      cfg.Auth,
		metrics:   cfg.Metrics,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background cleanup of the rate limiters.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/docs", docs.HandleDocs)
	s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	if s.auth == nil {
		return
	}

	if s.broker != nil && s.auth.TokensEnabled() {
		messageLimiter := ratelimit.NewLimiter(20, 40).WithKey(func(r *http.Request) string {
			return auth.TabIDFromContext(r.Context())
		})
		s.limiters = append(s.limiters, messageLimiter)
		s.router.Group(func(r chi.Router) {
			r.Use(s.auth.TabMiddleware)
			r.Use(messageLimiter.Middleware)
			r.Post("/api/messages", s.handleMessage)
		})
	}

	if s.options != nil {
		optionsLimiter := ratelimit.NewLimiter(2, 10)
		s.limiters = append(s.limiters, optionsLimiter)
		s.router.Route("/api/options", func(r chi.Router) {
			r.Use(optionsLimiter.Middleware)
			r.Use(s.auth.OptionsMiddleware)
			r.Get("/blocklist", s.handleGetBlocklist)
			r.Put("/blocklist", s.handlePutBlocklist)
			r.Get("/remote", s.handleGetRemote)
			r.Put("/remote", s.handlePutRemote)
			r.Post("/remote/refresh", s.handleRefreshRemote)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Get("/debug", s.handleGetDebug)
			r.Put("/debug", s.handlePutDebug)
			r.Get("/limits", s.handleLimits)
			if s.auth.TokensEnabled() {
				r.Post("/tabs/{tabID}/token", s.handleIssueTabToken)
			}
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"store unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
