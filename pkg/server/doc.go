// Package server orchestrates the lifecycle of a network application
// server: it binds listening transports, runs the hosted application's
// startup/shutdown handshake, supervises the accept loops alongside a
// shutdown watcher and a periodic tick task, and executes an orderly,
// interruptible drain before returning.
//
// A Server moves through a linear state machine - Idle, Starting, Running,
// Draining, Stopped - exactly once per instance. The wire protocol spoken
// on accepted connections is not this package's concern: a ProtocolFactory
// supplied by the embedding process produces one Connection handler per
// accepted stream, and the hosted application participates through the
// Lifespan handshake.
package server
