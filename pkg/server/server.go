package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saker-io/saker/internal/logger"
	"github.com/saker-io/saker/internal/ratelimiter"
	"github.com/saker-io/saker/pkg/config"
	"github.com/saker-io/saker/pkg/metrics"
	"github.com/saker-io/saker/pkg/transport"
)

// ErrAlreadyServed indicates Serve was called more than once on the same
// Server instance. A server serves exactly one generation of transports.
var ErrAlreadyServed = errors.New("server: Serve has already been called")

// ErrNoProtocol indicates Serve was called without a registered protocol
// factory.
var ErrNoProtocol = errors.New("server: no protocol registered; call RegisterProtocol before Serve")

// errShutdown is the internal shutdown condition raised by a supervised
// task. It ends the Running state and is never surfaced to the caller.
var errShutdown = errors.New("server: shutdown requested")

// ProtocolFactory produces the handler for one accepted stream. The
// returned Connection must register itself into the shared state's
// connection set when it starts serving and remove itself when it closes;
// it owns the accepted net.Conn.
type ProtocolFactory func(state *State, cfg *config.Config, conn net.Conn) Connection

// Server is the lifecycle orchestrator. It moves through a linear state
// machine - Idle, Starting, Running, Draining, Stopped - exactly once per
// instance.
//
// Lifecycle:
//  1. Creation: New() with configuration
//  2. Registration: RegisterProtocol(), optionally RegisterLifespan(),
//     SetShutdownEvent(), SetMetrics()
//  3. Startup: Serve() binds transports and blocks while serving
//  4. Shutdown: a termination signal, the cross-process shutdown flag, or
//     the request limit drains in-flight work and returns
type Server struct {
	config *config.Config
	state  *State

	lifespan      Lifespan
	protocol      ProtocolFactory
	shutdownEvent ShutdownEvent
	metrics       metrics.ServerMetrics

	// trigger is the unified shutdown trigger fed by whichever external
	// source fires first.
	trigger *Trigger

	// listeners are the bound transports of this generation; raw holds
	// caller-supplied listeners that step 1 of the drain closes even if
	// they were wrapped.
	listeners []net.Listener
	raw       []net.Listener

	group    *errgroup.Group
	groupCtx context.Context

	limiter       *ratelimiter.RateLimiter
	connSemaphore chan struct{}

	served     atomic.Bool
	started    atomic.Bool
	shouldExit atomic.Bool
	forceExit  atomic.Bool

	lastNotified time.Time
	pid          int

	sigCh chan os.Signal
}

// New creates a Server for the given configuration. The configuration may
// be unfinalized; Serve applies defaults and validates it if needed.
func New(cfg *config.Config) *Server {
	return &Server{
		config:   cfg,
		state:    NewState(),
		lifespan: NoopLifespan{},
		metrics:  metrics.NewNoopServerMetrics(),
		trigger:  NewTrigger(),
	}
}

// RegisterProtocol registers the factory that produces a connection handler
// per accepted stream. Must be called before Serve.
func (s *Server) RegisterProtocol(f ProtocolFactory) {
	s.protocol = f
}

// RegisterLifespan registers the hosted application's startup/shutdown
// handshake. Defaults to NoopLifespan.
func (s *Server) RegisterLifespan(l Lifespan) {
	if l == nil {
		l = NoopLifespan{}
	}
	s.lifespan = l
}

// SetShutdownEvent puts the server in worker mode: instead of registering
// signal handlers, the watcher polls the externally owned flag.
func (s *Server) SetShutdownEvent(ev ShutdownEvent) {
	s.shutdownEvent = ev
}

// SetMetrics replaces the metrics sink for the server and its shared state.
func (s *Server) SetMetrics(m metrics.ServerMetrics) {
	if m == nil {
		m = metrics.NewNoopServerMetrics()
	}
	s.metrics = m
	s.state.SetMetrics(m)
}

// State returns the shared server state handed to protocol handlers.
func (s *Server) State() *State {
	return s.state
}

// Started reports whether transports are bound and the supervised tasks are
// scheduled. It transitions false to true exactly once.
func (s *Server) Started() bool {
	return s.started.Load()
}

// ForceExit abandons the graceful drain: every subsequent drain wait
// short-circuits. Monotone; there is no way to clear it.
func (s *Server) ForceExit() {
	s.forceExit.Store(true)
}

// RequestShutdown resolves the shutdown trigger, ending the Running state.
// Idempotent.
func (s *Server) RequestShutdown() {
	s.shouldExit.Store(true)
	s.trigger.Set()
}

// Serve runs the full lifecycle and blocks until the server reaches
// Stopped. Pre-bound listeners handed off by a process manager take
// precedence over the configured bind strategy.
//
// Cancelling ctx is equivalent to an external shutdown request: the server
// transitions to Draining and still runs the full drain protocol.
//
// Returns nil on an orderly shutdown. A failure to bind the configured
// host/port does not return: it is logged and the process exits with
// status 1, because no accept loop has started yet and no cleanup is owed.
func (s *Server) Serve(ctx context.Context, inherited ...net.Listener) error {
	if !s.served.CompareAndSwap(false, true) {
		return ErrAlreadyServed
	}
	if s.protocol == nil {
		return ErrNoProtocol
	}

	s.pid = os.Getpid()

	// Idle -> Starting
	if !s.config.Loaded {
		if err := s.config.Finalize(); err != nil {
			return err
		}
	}

	s.installSignalHandlers()
	defer s.removeSignalHandlers()

	logger.Info("Started server process [%d]", s.pid)

	if err := s.startup(ctx, inherited); err != nil {
		return err
	}

	// Running: wait for any supervised task to raise the shutdown
	// condition or for external interruption. Caught here as a normal
	// transition to Draining, never as an error.
	if s.started.Load() {
		<-s.groupCtx.Done()
		logger.Debug("Main loop ended: %v", context.Cause(s.groupCtx))
	}

	// Draining -> Stopped
	s.shutdownSequence(ctx)

	logger.Info("Finished server process [%d]", s.pid)
	return nil
}

// startup runs the application startup handshake, binds transports, and
// schedules the supervised task group: one accept loop per transport, the
// shutdown watcher, and the tick task.
//
// If the application signals an early exit the server skips straight to
// draining: no transport is bound and started stays false.
func (s *Server) startup(ctx context.Context, inherited []net.Listener) error {
	if err := s.lifespan.Startup(ctx); err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}
	if s.lifespan.ShouldExit() {
		s.shouldExit.Store(true)
		return nil
	}

	bound, err := s.bind(ctx, inherited)
	if err != nil {
		return err
	}

	for _, b := range bound {
		logger.Info("Saker running on %s (Press CTRL+C to quit)", b.Endpoint)
		s.listeners = append(s.listeners, b.Listener)
	}

	if s.config.Server.MaxConnections > 0 {
		s.connSemaphore = make(chan struct{}, s.config.Server.MaxConnections)
	}
	if s.config.Server.AcceptRate.RequestsPerSecond > 0 {
		s.limiter = ratelimiter.New(
			s.config.Server.AcceptRate.RequestsPerSecond,
			s.config.Server.AcceptRate.Burst,
		)
	}

	s.group, s.groupCtx = errgroup.WithContext(ctx)
	s.group.Go(func() error { return s.watchShutdown(s.groupCtx) })
	s.group.Go(func() error { return s.tickLoop(s.groupCtx) })
	for _, l := range s.listeners {
		l := l
		s.group.Go(func() error { return s.acceptLoop(ctx, l) })
	}

	s.started.Store(true)
	return nil
}

// bind resolves the binding strategy and produces the bound transports.
// Caller-supplied listeners win over configuration; a host/port bind
// failure is fatal (spec of the standard strategy), while the handoff
// strategies propagate errors to the caller.
func (s *Server) bind(ctx context.Context, inherited []net.Listener) ([]transport.Bound, error) {
	var spec transport.Spec
	if len(inherited) > 0 {
		s.raw = inherited
		spec = transport.Spec{
			Strategy:  transport.StrategyInherited,
			Listeners: inherited,
		}
	} else {
		var err error
		spec, err = config.ResolveBind(s.config)
		if err != nil {
			return nil, err
		}
	}

	bound, err := transport.Bind(spec, s.config.TLSConfig)
	if err != nil {
		if spec.Strategy == transport.StrategyTCP {
			logger.Error("%v", err)
			_ = s.lifespan.Shutdown(ctx)
			os.Exit(1)
		}
		return nil, err
	}

	return bound, nil
}
