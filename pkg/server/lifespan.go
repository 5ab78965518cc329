package server

import "context"

// Lifespan is the hosted application's startup/shutdown handshake. Both
// handshakes are awaited exactly once per server instance.
type Lifespan interface {
	// Startup runs the application startup handshake. An error is fatal;
	// a nil error with ShouldExit() true asks the server to skip straight
	// to draining without ever binding transports.
	Startup(ctx context.Context) error

	// ShouldExit reports whether the application requested an early exit
	// during startup.
	ShouldExit() bool

	// Shutdown runs the application shutdown handshake.
	Shutdown(ctx context.Context) error
}

// NoopLifespan is the default Lifespan for servers with no hosted
// application handshake.
type NoopLifespan struct{}

func (NoopLifespan) Startup(context.Context) error  { return nil }
func (NoopLifespan) ShouldExit() bool               { return false }
func (NoopLifespan) Shutdown(context.Context) error { return nil }
