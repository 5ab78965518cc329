package server

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/saker-io/saker/internal/logger"
)

// ShutdownEvent is an externally owned cross-process shutdown flag. A
// worker-pool manager sets it to stop every worker without delivering
// signals; workers only ever read it.
type ShutdownEvent interface {
	// IsSet reports whether shutdown has been requested.
	IsSet() bool
}

// pollInterval is the cadence for polling the cross-process shutdown flag
// and the drain sets.
const pollInterval = 100 * time.Millisecond

// installSignalHandlers registers the platform's termination signals,
// routing them into the shutdown trigger. It is skipped entirely when the
// server runs in worker mode: there the externally owned shutdown flag is
// the only shutdown source, polled by watchShutdown.
//
// The handling goroutine does no blocking work: the first delivery resolves
// the trigger, any further delivery marks forceExit so a stuck drain can be
// abandoned.
func (s *Server) installSignalHandlers() {
	if s.shutdownEvent != nil {
		return
	}

	s.sigCh = make(chan os.Signal, 2)
	signal.Notify(s.sigCh, handledSignals()...)

	go func() {
		for range s.sigCh {
			if s.trigger.IsSet() {
				logger.Debug("Received second signal, forcing exit")
				s.forceExit.Store(true)
				continue
			}
			logger.Debug("Received signal")
			s.shouldExit.Store(true)
			s.trigger.Set()
		}
	}()
}

// removeSignalHandlers stops signal delivery and ends the handling
// goroutine. Called once the server reaches Stopped.
func (s *Server) removeSignalHandlers() {
	if s.sigCh == nil {
		return
	}
	signal.Stop(s.sigCh)
	close(s.sigCh)
	s.sigCh = nil
}

// watchShutdown is the supervised watcher task. It resolves as soon as the
// shutdown trigger fires, ending the supervised group; in worker mode it
// polls the externally owned flag at a fixed interval and resolves the
// trigger itself.
//
// The errShutdown return is the normal end-of-group condition, not a
// failure: the supervisor catches it at the Running boundary.
func (s *Server) watchShutdown(ctx context.Context) error {
	if s.shutdownEvent != nil {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if s.shutdownEvent.IsSet() {
					logger.Debug("Cross-process shutdown flag observed")
					s.shouldExit.Store(true)
					s.trigger.Set()
					return errShutdown
				}
			}
		}
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.trigger.Done():
		return errShutdown
	}
}
