package server

import (
	"context"
	"errors"
	"net"

	"github.com/saker-io/saker/internal/logger"
)

// acceptLoop accepts connections on one bound transport until the listener
// is closed by the shutdown sequencer. Each accepted stream gets a handler
// from the protocol factory, served on its own goroutine.
//
// The handler receives the Serve-level context rather than the supervised
// group's: in-flight connections outlive the Running state and are drained
// cooperatively, not cancelled, when the group ends.
func (s *Server) acceptLoop(ctx context.Context, l net.Listener) error {
	for {
		// Optional accept throttle: excess connection attempts queue in
		// the listen backlog instead of being rejected.
		if s.limiter != nil {
			if err := s.limiter.Wait(s.groupCtx); err != nil {
				return nil
			}
		}

		// Optional concurrent connection cap.
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.groupCtx.Done():
				return nil
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}

			// Listener closed: the sequencer stopped this transport.
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			select {
			case <-s.groupCtx.Done():
				return nil
			default:
				// Transient accept failure (resource exhaustion,
				// client reset between accept and handshake).
				logger.Debug("Error accepting connection: %v", err)
				continue
			}
		}

		logger.Debug("Connection accepted from %s", conn.RemoteAddr())

		handler := s.protocol(s.state, s.config, conn)
		go func() {
			defer func() {
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
			}()
			handler.Serve(ctx)
		}()
	}
}
