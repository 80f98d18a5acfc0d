// Package server implements the flatstore connection engine: the TCP accept
// loop, the per-connection session state machine and the operation handlers
// for the line protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mcrocce/flatstore/internal/logger"
	"github.com/mcrocce/flatstore/internal/metrics"
	"github.com/mcrocce/flatstore/internal/ratelimiter"
	"github.com/mcrocce/flatstore/internal/store"
)

// Config carries the server-wide settings of the connection engine.
type Config struct {
	// ListenAddr is the TCP address to bind, e.g. ":8080".
	ListenAddr string

	// MaxConnections caps concurrent sessions; 0 means unlimited. A
	// connection over the cap is refused with an ERR line before any
	// greeting.
	MaxConnections int

	// AcceptRatePerSecond throttles the accept loop; 0 means unlimited.
	AcceptRatePerSecond uint

	// AcceptBurst is the accept limiter's burst capacity.
	AcceptBurst uint

	// ShutdownTimeout bounds the wait for in-flight sessions after the
	// listener is closed.
	ShutdownTimeout time.Duration
}

// Server accepts connections and runs one session goroutine per client.
// Sessions share nothing but the store; the per-file advisory lock inside
// the store is the only cross-session synchronization.
type Server struct {
	config  Config
	store   *store.Store
	metrics metrics.ServerMetrics
	limiter *ratelimiter.RateLimiter

	listener net.Listener
	sessions sync.WaitGroup
}

// New assembles a server. A nil metrics value disables instrumentation.
func New(config Config, st *store.Store, m metrics.ServerMetrics) *Server {
	if m == nil {
		m = metrics.NewServerMetrics()
	}
	var limiter *ratelimiter.RateLimiter
	if config.AcceptRatePerSecond > 0 {
		burst := config.AcceptBurst
		if burst == 0 {
			burst = config.AcceptRatePerSecond
		}
		limiter = ratelimiter.New(config.AcceptRatePerSecond, burst)
	}
	return &Server{
		config:  config,
		store:   st,
		metrics: m,
		limiter: limiter,
	}
}

// Listen binds the configured address. Split from Serve so callers can
// learn the bound address (tests listen on port 0) before serving.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	s.listener = listener
	logger.Info("Server listening on %s, storage root: %s", listener.Addr(), s.store.Root())
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then drains in-flight
// sessions for up to ShutdownTimeout. Cancellation is observed between
// accepts; a session already streaming a payload finishes or is cut off by
// the drain deadline.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	var sem chan struct{}
	if s.config.MaxConnections > 0 {
		sem = make(chan struct{}, s.config.MaxConnections)
	}

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return s.drain()
			}
		}

		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return s.drain()
			default:
			}
			// A closed listener means Stop was called; anything else is a
			// transient accept failure.
			if errors.Is(err, net.ErrClosed) {
				return s.drain()
			}
			logger.Debug("Error accepting connection: %v", err)
			continue
		}

		if sem != nil {
			select {
			case sem <- struct{}{}:
			default:
				logger.Warn("Connection from %s refused: connection limit reached", tcpConn.RemoteAddr())
				_, _ = tcpConn.Write([]byte("ERR server busy\n"))
				_ = tcpConn.Close()
				continue
			}
		}

		s.metrics.ConnectionOpened()
		sess := newSession(s, tcpConn)
		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			sess.serve(ctx)
		}()
	}
}

// Stop closes the listener; Serve then drains and returns.
func (s *Server) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// drain waits for running sessions up to the shutdown timeout. Sessions
// still alive past the deadline are abandoned; their sockets die with the
// process.
func (s *Server) drain() error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		s.sessions.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All sessions finished, server stopped")
		return nil
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout elapsed with sessions still active")
		return nil
	}
}
