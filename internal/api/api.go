// Package api provides HTTP handlers and the main API server logic for StandTall.
//
// It exposes RESTful endpoints for creating game sessions, submitting turns,
// and walking a session through the level progression. The API integrates
// with the game engine, the scoring oracle, and the store modules.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couragelab/standtall/internal/game"
	"github.com/couragelab/standtall/internal/store"
)

// DefaultAddr is the address the API server listens on when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a functional option for API server configuration.
type Option func(*Opts)

// WithAddr sets the listen address for the API server.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server hosts the StandTall HTTP API.
type Server struct {
	engine *game.Engine
	st     store.Store
	addr   string
}

// NewServer creates an API server around the given engine and store.
func NewServer(engine *game.Engine, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("Server.NewServer: creating API server", "addr", cfg.Addr)
	return &Server{engine: engine, st: st, addr: cfg.Addr}
}

// Handler returns the server's HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionsHandler)
	mux.HandleFunc("/levels", s.levelsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the API server and blocks until it exits.
func (s *Server) Run() error {
	slog.Info("Server.Run: StandTall API listening", "addr", s.addr)
	if err := http.ListenAndServe(s.addr, s.Handler()); err != nil {
		return fmt.Errorf("API server exited: %w", err)
	}
	return nil
}
