package websocket

import (
	"context"
	"crm-realtime/auth"
	"crm-realtime/contract"
	"crm-realtime/observability"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Server accepts WebSocket sessions on its endpoints and serves /healthz.
type Server struct {
	ctx       context.Context
	log       *slog.Logger
	registry  contract.IRegistry
	metrics   *observability.Counters
	cfg       Config
	upgrader  websocket.Upgrader
	endpoints []Endpoint
	signer    *auth.Signer
}

type Option func(*Server)

// WithAuth requires a valid token on every handshake.
func WithAuth(signer *auth.Signer) Option {
	return func(s *Server) { s.signer = signer }
}

// WithAllowedOrigin restricts handshakes to one origin, "*" accepts all of them.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		if origin == "" || origin == "*" {
			s.upgrader.CheckOrigin = func(*http.Request) bool { return true }
			return
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == origin
		}
	}
}

// NewServer ties sessions to ctx: cancelling it closes every open session.
func NewServer(ctx context.Context,
	log *slog.Logger,
	registry contract.IRegistry,
	metrics *observability.Counters,
	cfg Config,
	endpoints []Endpoint,
	opts ...Option) *Server {
	s := &Server{
		ctx:       ctx,
		log:       log,
		registry:  registry,
		metrics:   metrics,
		cfg:       cfg,
		endpoints: endpoints,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Group(func(r chi.Router) {
		if s.signer != nil {
			r.Use(auth.Middleware(s.signer, s.log))
		}
		for _, endpoint := range s.endpoints {
			r.Get(endpoint.Path, s.serve(endpoint))
		}
	})
	return r
}

// serve joins the group before the handshake completes, so a connected client
// never misses a broadcast. A failed handshake gives the membership back.
func (s *Server) serve(endpoint Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := newSession(endpoint, auth.UserID(r.Context()), s.cfg, s.log, s.metrics)
		s.registry.Join(endpoint.Group, session)

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.registry.Leave(endpoint.Group, session.ID())
			s.log.Warn("Handshake failed", "path", endpoint.Path, "remote", r.RemoteAddr, "error", err)
			return
		}
		session.conn = conn
		s.metrics.ConnectionOpened()
		session.run(s.ctx, s.registry)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	stats := s.metrics.Snapshot(s.registry.Stats())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Error("Unable to encode health", "error", err)
	}
}

// Paths lists the routes served, for startup logs.
func (s *Server) Paths() []string {
	return lo.Map(s.endpoints, func(e Endpoint, _ int) string { return e.Path })
}
