package server

import (
	"context"
	"time"

	"github.com/saker-io/saker/internal/logger"
)

// gracePeriod is how long the sequencer waits after requesting shutdown on
// live connections before it starts polling the drain sets.
const gracePeriod = 100 * time.Millisecond

// shutdownSequence executes the drain protocol, in order:
//
//  1. Close every listening transport, then any caller-supplied raw
//     listeners that were wrapped rather than adopted directly.
//  2. Reap the supervised group - with the listeners closed every accept
//     loop unblocks, so this is the point where all closes have fully
//     completed and no new connection can ever be registered.
//  3. Ask every tracked connection to shut down and allow one grace
//     interval for in-flight work to notice.
//  4. Poll until the connection set empties, unless forceExit.
//  5. Poll until the background task set empties, unless forceExit.
//  6. Run the application shutdown handshake, unless forceExit.
//
// forceExit is the only early exit from steps 3-6; it is set externally
// (second interrupt signal) and only ever read here.
func (s *Server) shutdownSequence(ctx context.Context) {
	logger.Info("Shutting down")

	// The drain must run to completion even when the shutdown was caused
	// by the caller cancelling ctx.
	ctx = context.WithoutCancel(ctx)

	// Stop accepting new connections.
	for _, l := range s.listeners {
		if err := l.Close(); err != nil {
			logger.Debug("Error closing listener: %v", err)
		}
	}
	// Raw handoff sockets may already be closed through their wrappers;
	// a second close is harmless.
	for _, l := range s.raw {
		_ = l.Close()
	}

	// Wait for the supervised group - accept loops, watcher, tick - to
	// finish. errShutdown is the expected group result, not a failure.
	if s.group != nil {
		if err := s.group.Wait(); err != nil && err != errShutdown {
			logger.Debug("Supervised group ended with: %v", err)
		}
	}

	// Request shutdown on all existing connections.
	for _, c := range s.state.Connections() {
		c.Shutdown()
	}
	time.Sleep(gracePeriod)

	// Wait for existing connections to finish sending responses.
	if s.state.ConnectionCount() > 0 && !s.forceExit.Load() {
		logger.Info("Waiting for connections to close. (CTRL+C to force quit)")
		for s.state.ConnectionCount() > 0 && !s.forceExit.Load() {
			time.Sleep(pollInterval)
		}
	}

	// Wait for existing background tasks to complete.
	if s.state.TaskCount() > 0 && !s.forceExit.Load() {
		logger.Info("Waiting for background tasks to complete. (CTRL+C to force quit)")
		for s.state.TaskCount() > 0 && !s.forceExit.Load() {
			time.Sleep(pollInterval)
		}
	}

	// Send the application shutdown handshake and wait for it.
	if !s.forceExit.Load() {
		if err := s.lifespan.Shutdown(ctx); err != nil {
			logger.Warn("Application shutdown failed: %v", err)
		}
	}
}
