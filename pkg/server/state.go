package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/saker-io/saker/pkg/metrics"
)

// Header is one response header as raw bytes.
type Header struct {
	Name  []byte
	Value []byte
}

// Connection is the opaque handle a protocol handler registers into the
// shared state for one accepted stream. Shutdown is a cooperative request:
// the handler should stop after the in-flight exchange completes, not
// terminate it.
type Connection interface {
	// Serve processes the accepted stream until it is closed or shut down.
	Serve(ctx context.Context)

	// Shutdown asks the handler to finish up and close.
	Shutdown()
}

// BackgroundTask is the opaque handle for application-spawned long-running
// work tracked through the drain.
type BackgroundTask interface{}

// State is the shared server state visible to every accepted connection and
// background task. It is owned by the Server and passed by reference to
// protocol handlers, which increment the request counter and maintain their
// own membership in the connection set.
//
// One mutex guards the handle sets and the default headers; the request
// counter is atomic so handlers can bump it without locking. Readers of
// DefaultHeaders may observe a newer value between two consecutive reads -
// the headers are replaced wholesale once per refresh cycle and that is the
// intended behavior.
type State struct {
	mu             sync.Mutex
	connections    map[Connection]struct{}
	tasks          map[BackgroundTask]struct{}
	defaultHeaders []Header

	totalRequests atomic.Int64

	metrics metrics.ServerMetrics
}

// NewState creates an empty shared state with no-op metrics.
func NewState() *State {
	return &State{
		connections: make(map[Connection]struct{}),
		tasks:       make(map[BackgroundTask]struct{}),
		metrics:     metrics.NewNoopServerMetrics(),
	}
}

// SetMetrics replaces the metrics sink. Must be called before the server
// starts accepting.
func (s *State) SetMetrics(m metrics.ServerMetrics) {
	if m == nil {
		m = metrics.NewNoopServerMetrics()
	}
	s.metrics = m
}

// IncRequests increments the monotonic request counter and returns the new
// total. Called by protocol handlers once per completed request.
func (s *State) IncRequests() int64 {
	s.metrics.RecordRequest()
	return s.totalRequests.Add(1)
}

// TotalRequests returns the current request total. The counter never
// decreases.
func (s *State) TotalRequests() int64 {
	return s.totalRequests.Load()
}

// AddConnection registers an accepted connection handle.
func (s *State) AddConnection(c Connection) {
	s.mu.Lock()
	s.connections[c] = struct{}{}
	count := len(s.connections)
	s.mu.Unlock()

	s.metrics.RecordConnectionAccepted()
	s.metrics.SetActiveConnections(count)
}

// RemoveConnection removes a connection handle on close.
func (s *State) RemoveConnection(c Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	count := len(s.connections)
	s.mu.Unlock()

	s.metrics.RecordConnectionClosed()
	s.metrics.SetActiveConnections(count)
}

// Connections returns a snapshot of the currently tracked connection
// handles, safe to iterate without holding the state lock.
func (s *State) Connections() []Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Connection, 0, len(s.connections))
	for c := range s.connections {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// ConnectionCount returns the number of tracked connections.
func (s *State) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// AddTask registers a background task handle.
func (s *State) AddTask(t BackgroundTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t] = struct{}{}
}

// RemoveTask removes a background task handle on completion.
func (s *State) RemoveTask(t BackgroundTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, t)
}

// TaskCount returns the number of tracked background tasks.
func (s *State) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// SetDefaultHeaders replaces the default response headers wholesale. The
// slice must not be mutated by the caller afterwards.
func (s *State) SetDefaultHeaders(headers []Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultHeaders = headers
}

// DefaultHeaders returns the current default response headers. The returned
// slice is the live value and must be treated as read-only; a concurrent
// refresh swaps the whole slice, never its elements.
func (s *State) DefaultHeaders() []Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultHeaders
}
