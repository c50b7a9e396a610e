// Package api serves the diagnostics HTTP API: health, live sessions and
// channel states, the traffic journal, prometheus metrics, and optionally
// a websocket endpoint that accepts links.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/session"
	"github.com/ZentaChain/aalink/pkg/transport"
)

// Sessions is the live session view the API reports
type Sessions interface {
	Sessions() []session.Info
	Stats() session.Stats
}

// Journal is the traffic history the API reports
type Journal interface {
	Recent(channel string, limit int) ([]journal.Entry, error)
	Stats() (journal.Stats, error)
}

// LinkFunc runs a link accepted over websocket until it ends
type LinkFunc func(rw io.ReadWriteCloser, remote string) error

// Config holds server configuration
type Config struct {
	Addr         string
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8090",
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the diagnostics HTTP server
type Server struct {
	cfg      Config
	router   *gin.Engine
	log      zerolog.Logger
	sessions Sessions
	journal  Journal
	gatherer prometheus.Gatherer
	link     LinkFunc

	listener   net.Listener
	httpServer *http.Server
	startTime  time.Time
}

// Option configures optional sources
type Option func(*Server)

// WithJournal enables the journal endpoints
func WithJournal(j Journal) Option {
	return func(s *Server) { s.journal = j }
}

// WithGatherer serves /metrics from g
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLinks accepts links on GET /link
func WithLinks(fn LinkFunc) Option {
	return func(s *Server) { s.link = fn }
}

// NewServer creates the server. sessions is required.
func NewServer(cfg Config, sessions Sessions, logger zerolog.Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		router:    gin.New(),
		log:       logger.With().Str("component", "api").Logger(),
		sessions:  sessions,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	if s.cfg.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/sessions", s.handleSessions)
		v1.GET("/channels", s.handleChannels)

		j := v1.Group("/journal")
		{
			j.GET("", s.handleJournal)
			j.GET("/stats", s.handleJournalStats)
		}
	}

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	if s.link != nil {
		s.router.GET("/link", gin.WrapH(transport.WebSocketHandler(func(conn *transport.WSConn) {
			if err := s.link(conn, conn.RemoteAddr()); err != nil {
				s.log.Debug().Err(err).Msg("websocket link ended")
			}
		})))
	}

	s.router.GET("/health", s.handleHealth)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the address and serves in the background
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = l

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.log.Info().Str("addr", l.Addr().String()).Msg("diagnostics api listening")
		if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("api server failed")
		}
	}()
	return nil
}

// Addr is the bound address, empty before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
