package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/aalink/pkg/transport"
)

var ErrServerClosed = errors.New("session: server closed")

// Lifecycle is told when sessions start and end
type Lifecycle interface {
	SessionStarted()
	SessionEnded()
}

// Server accepts links and runs a session on each
type Server struct {
	cfg       Config
	opts      Options
	lifecycle Lifecycle
	log       zerolog.Logger

	listener *transport.Listener

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup

	startTime time.Time
	accepted  atomic.Uint64
}

// NewServer creates a server. lifecycle may be nil.
func NewServer(cfg Config, opts Options, lifecycle Lifecycle) *Server {
	return &Server{
		cfg:       cfg,
		opts:      opts,
		lifecycle: lifecycle,
		log:       opts.Logger.With().Str("component", "server").Logger(),
		sessions:  make(map[string]*Session),
		startTime: time.Now(),
	}
}

// Start listens on a multiaddr and accepts in the background
func (srv *Server) Start(addr string) error {
	l, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	srv.listener = l
	srv.log.Info().Stringer("addr", l.Multiaddr()).Msg("listening for head unit links")

	go srv.acceptLoop()
	return nil
}

// Addr is the bound multiaddr, empty before Start
func (srv *Server) Addr() string {
	if srv.listener == nil {
		return ""
	}
	return srv.listener.Multiaddr().String()
}

func (srv *Server) acceptLoop() {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				srv.log.Error().Err(err).Msg("accept failed")
			}
			return
		}

		go func() {
			if err := srv.Serve(conn, transport.RemoteMultiaddr(conn)); err != nil && !errors.Is(err, ErrServerClosed) {
				srv.log.Debug().Err(err).Msg("session ended")
			}
		}()
	}
}

// Serve runs a session over rw until it ends and returns the reason.
// rw is closed on return.
func (srv *Server) Serve(rw io.ReadWriteCloser, remote string) error {
	if srv.isClosed() {
		rw.Close()
		return ErrServerClosed
	}

	s, err := New(rw, remote, srv.cfg, srv.opts)
	if err != nil {
		rw.Close()
		return err
	}

	srv.mu.Lock()
	if srv.closed {
		srv.mu.Unlock()
		s.Close(ErrServerClosed)
		return ErrServerClosed
	}
	srv.sessions[s.ID()] = s
	srv.wg.Add(1)
	srv.mu.Unlock()

	defer func() {
		srv.mu.Lock()
		delete(srv.sessions, s.ID())
		srv.mu.Unlock()
		if srv.lifecycle != nil {
			srv.lifecycle.SessionEnded()
		}
		srv.wg.Done()
	}()

	srv.accepted.Add(1)
	if srv.lifecycle != nil {
		srv.lifecycle.SessionStarted()
	}

	s.Start()
	<-s.Done()
	return s.Err()
}

func (srv *Server) isClosed() bool {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.closed
}

// Sessions snapshots every running session, oldest first
func (srv *Server) Sessions() []Info {
	srv.mu.RLock()
	infos := make([]Info, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		infos = append(infos, s.Info())
	}
	srv.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Stats is a summary for the heartbeat log and the API
type Stats struct {
	Active   int           `json:"active"`
	Accepted uint64        `json:"accepted"`
	Media    uint64        `json:"media_received"`
	Uptime   time.Duration `json:"uptime"`
}

func (srv *Server) Stats() Stats {
	st := Stats{
		Accepted: srv.accepted.Load(),
		Uptime:   time.Since(srv.startTime),
	}
	srv.mu.RLock()
	st.Active = len(srv.sessions)
	for _, s := range srv.sessions {
		st.Media += s.mediaReceived.Load()
	}
	srv.mu.RUnlock()
	return st
}

// Shutdown stops accepting, asks every device to end its session and waits
// for them or ctx
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.mu.Lock()
	if srv.closed {
		srv.mu.Unlock()
		return ErrServerClosed
	}
	srv.closed = true
	sessions := make([]*Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mu.Unlock()

	if srv.listener != nil {
		srv.listener.Close()
	}

	for _, s := range sessions {
		go s.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, s := range sessions {
			s.Close(ErrShutdown)
		}
		return ctx.Err()
	}
}
