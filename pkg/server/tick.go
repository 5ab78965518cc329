package server

import (
	"context"
	"time"

	"github.com/saker-io/saker/internal/logger"
)

const (
	// tickInterval is the cadence of the housekeeping task.
	tickInterval = 100 * time.Millisecond

	// headerRefreshTicks is how many ticks pass between wholesale
	// replacements of the default headers.
	headerRefreshTicks = 10

	// imfFixdate is the IMF-fixdate layout used for the date header.
	imfFixdate = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// tickLoop is the supervised housekeeping task. It runs onTick once
// immediately and then on a fixed cadence until onTick signals exit, which
// ends the supervised group in the request-limit scenario.
func (s *Server) tickLoop(ctx context.Context) error {
	counter := 0
	if s.onTick(ctx, counter) {
		return errShutdown
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			counter++
			if s.onTick(ctx, counter) {
				return errShutdown
			}
		}
	}
}

// onTick performs one housekeeping pass and reports whether the server
// should exit.
func (s *Server) onTick(ctx context.Context, counter int) bool {
	// Refresh the default headers once per second: the freshly computed
	// date header followed by the configured static headers, replaced
	// wholesale so readers never observe a torn value.
	if counter%headerRefreshTicks == 0 {
		now := time.Now()
		headers := make([]Header, 0, 1+len(s.config.Headers))
		headers = append(headers, Header{
			Name:  []byte("date"),
			Value: []byte(now.UTC().Format(imfFixdate)),
		})
		for _, h := range s.config.Headers {
			headers = append(headers, Header{
				Name:  []byte(h.Name),
				Value: []byte(h.Value),
			})
		}
		s.state.SetDefaultHeaders(headers)

		if s.config.NotifyCallback != nil && now.Sub(s.lastNotified) > s.config.Server.TimeoutNotify {
			s.lastNotified = now
			if err := s.config.NotifyCallback(ctx); err != nil {
				logger.Warn("Notify callback failed: %v", err)
			}
		}
	}

	if s.shouldExit.Load() {
		return true
	}
	if s.config.Server.MaxRequests > 0 {
		return s.state.TotalRequests() >= int64(s.config.Server.MaxRequests)
	}
	return false
}
