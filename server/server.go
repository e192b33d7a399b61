// Package server implements the console frame server: one listening
// socket, one client at a time, an unbounded emission loop per session.
//
// The serve loop is a two-state machine:
//
//	LISTENING -> (accept) -> SESSION_ACTIVE -> (peer disconnect) -> LISTENING
//
// Sessions are strictly serial. A second client connecting while a
// session is active waits in the OS backlog until the current session
// ends. No state is shared across sessions; the sequence counter and
// start time live in the per-session Generator.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/justapithecus/rioconsole/console"
	"github.com/justapithecus/rioconsole/iox"
	"github.com/justapithecus/rioconsole/log"
	"github.com/justapithecus/rioconsole/metrics"
	"github.com/justapithecus/rioconsole/wire"
)

// DefaultAddr is the fixed console port the driver station connects to.
// Not configurable in the CLI: the downstream client always dials 1740.
const DefaultAddr = ":1740"

// serve loop states.
const (
	stateListening int32 = iota
	stateSessionActive
)

func stateName(s int32) string {
	if s == stateSessionActive {
		return "session_active"
	}
	return "listening"
}

// Server owns the listening socket and serves sessions serially.
type Server struct {
	addr    string
	rate    int
	clock   console.Clock
	logger  *log.Logger
	metrics *metrics.Collector

	state atomic.Int32
}

// New creates a Server emitting msgRate messages per second.
// addr is DefaultAddr in production; tests pass a loopback address.
func New(addr string, msgRate int, logger *log.Logger, collector *metrics.Collector) *Server {
	return &Server{
		addr:    addr,
		rate:    msgRate,
		clock:   console.SystemClock{},
		logger:  logger,
		metrics: collector,
	}
}

// WithClock overrides the wall clock used for elapsed-time stamps.
// For tests.
func (s *Server) WithClock(c console.Clock) *Server {
	s.clock = c
	return s
}

// State returns the current serve loop state name.
func (s *Server) State() string {
	return stateName(s.state.Load())
}

// Serve binds the listening socket and serves sessions until ctx is
// cancelled. Bind failure is fatal and returned immediately.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves sessions on an already-bound listener until ctx
// is cancelled. Tests use this with an ephemeral loopback listener.
//
// Peer disconnects are recoverable: the loop closes the session and
// goes back to accepting. Any other session error is fatal.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	defer iox.DiscardClose(ln)

	// Unblock Accept when ctx is cancelled.
	go func() {
		<-ctx.Done()
		iox.DiscardClose(ln)
	}()

	s.logger.Info("listening", map[string]any{"addr": ln.Addr().String()})

	for {
		s.state.Store(stateListening)

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("shutting down", nil)
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.state.Store(stateSessionActive)
		s.metrics.IncSessionAccepted()
		s.logger.Info("client connected", map[string]any{
			"peer":  conn.RemoteAddr().String(),
			"state": stateName(stateSessionActive),
		})

		err = s.session(ctx, conn)
		iox.DiscardClose(conn)

		switch {
		case err == nil:
			// ctx cancelled mid-session.
			s.logger.Info("shutting down", nil)
			return nil
		case isDisconnect(err):
			s.metrics.IncSessionDisconnected()
			snap := s.metrics.Snapshot()
			s.logger.Info("client disconnected, waiting for reconnect", map[string]any{
				"frames_emitted": snap.FramesEmitted,
				"bytes_written":  snap.BytesWritten,
				"state":          stateName(stateListening),
			})
		default:
			s.logger.Error("session failed", map[string]any{"error": err.Error()})
			return fmt.Errorf("session: %w", err)
		}
	}
}

// session drives the emission loop for one connection: generate,
// encode, write, pace. Returns nil when ctx is cancelled, otherwise
// the write error that ended the session.
func (s *Server) session(ctx context.Context, conn net.Conn) error {
	gen := console.NewGenerator(s.clock, s.rate)
	limiter := rate.NewLimiter(rate.Limit(s.rate), 1)

	for {
		msg := gen.Next()
		frame, err := wire.Encode(msg)
		if err != nil {
			return err
		}

		// net.Conn.Write blocks until all bytes are buffered or fails.
		if _, err := conn.Write(frame); err != nil {
			s.metrics.IncWriteFailure()
			return err
		}
		s.metrics.AddFrame(msg.Kind, len(frame))

		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
	}
}

// isDisconnect reports whether a write error means the peer closed or
// reset the connection. These are the only recoverable session errors;
// everything else terminates the process.
func isDisconnect(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
