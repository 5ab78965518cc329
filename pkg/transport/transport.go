// Package transport resolves a configured binding strategy into bound,
// listening transports.
//
// Exactly one of four mutually exclusive strategies applies per server
// generation, in precedence order: listeners inherited from a process
// manager, a pre-opened file descriptor, a filesystem domain socket, or a
// host/port pair. The resolved strategy is a tagged variant carried by Spec;
// Bind turns it into net.Listeners wrapped with the opaque transport
// security context when one is present.
package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
)

// Strategy discriminates the binding variants.
type Strategy int

const (
	// StrategyInherited uses listeners handed off by a supervising process
	// manager, already bound before this process started.
	StrategyInherited Strategy = iota

	// StrategyFD wraps a single pre-opened file descriptor as a
	// domain-socket listener.
	StrategyFD

	// StrategyUnix binds a filesystem domain socket.
	StrategyUnix

	// StrategyTCP binds a host/port pair.
	StrategyTCP
)

func (s Strategy) String() string {
	switch s {
	case StrategyInherited:
		return "inherited"
	case StrategyFD:
		return "fd"
	case StrategyUnix:
		return "unix"
	case StrategyTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// Spec is the resolved binding strategy: the discriminant plus the
// parameters of the selected variant. Only the fields of the selected
// variant are meaningful.
type Spec struct {
	Strategy Strategy

	// Listeners carries pre-bound listeners (StrategyInherited).
	Listeners []net.Listener

	// FD is the pre-opened descriptor (StrategyFD).
	FD int

	// Path is the domain socket path (StrategyUnix).
	Path string

	// Host and Port form the TCP endpoint (StrategyTCP).
	Host string
	Port int
}

// Bound is one active listening transport together with the endpoint
// description used in log lines.
type Bound struct {
	Listener net.Listener

	// Endpoint is the human-readable endpoint description. IPv6 literals
	// are bracket-delimited and an ephemeral port request is resolved to
	// the port the operating system assigned.
	Endpoint string
}

// Bind resolves a Spec into one or more bound listening transports.
//
// When tlsConf is non-nil every listener is wrapped with it; the wrapped
// listener owns the underlying socket, so closing it closes the transport.
//
// Bind returns an error rather than exiting: the fatal-on-bind-failure
// policy for the host/port strategy belongs to the server startup path,
// which owes no cleanup because no accept loop has started yet.
func Bind(spec Spec, tlsConf *tls.Config) ([]Bound, error) {
	switch spec.Strategy {
	case StrategyInherited:
		return bindInherited(spec, tlsConf)
	case StrategyFD:
		return bindFD(spec, tlsConf)
	case StrategyUnix:
		return bindUnix(spec, tlsConf)
	case StrategyTCP:
		return bindTCP(spec, tlsConf)
	default:
		return nil, fmt.Errorf("unknown bind strategy %d", spec.Strategy)
	}
}

// bindInherited adopts listeners that a process manager bound before this
// process started. The cross-process descriptor handoff has already
// happened by the time the listeners reach us, so the only work left is
// the security wrap.
func bindInherited(spec Spec, tlsConf *tls.Config) ([]Bound, error) {
	if len(spec.Listeners) == 0 {
		return nil, fmt.Errorf("inherited bind requires at least one listener")
	}

	bound := make([]Bound, 0, len(spec.Listeners))
	for _, l := range spec.Listeners {
		bound = append(bound, Bound{
			Listener: maybeWrapTLS(l, tlsConf),
			Endpoint: fmt.Sprintf("socket %s", l.Addr()),
		})
	}
	return bound, nil
}

// bindFD wraps a pre-opened file descriptor as a domain-socket listener.
func bindFD(spec Spec, tlsConf *tls.Config) ([]Bound, error) {
	f := os.NewFile(uintptr(spec.FD), fmt.Sprintf("listener fd %d", spec.FD))
	if f == nil {
		return nil, fmt.Errorf("invalid listener file descriptor %d", spec.FD)
	}

	l, err := net.FileListener(f)
	// The listener dups the descriptor; the File wrapper is no longer needed.
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to wrap file descriptor %d as listener: %w", spec.FD, err)
	}

	return []Bound{{
		Listener: maybeWrapTLS(l, tlsConf),
		Endpoint: fmt.Sprintf("socket %s", l.Addr()),
	}}, nil
}

// bindUnix binds a filesystem domain socket. Permissions of a pre-existing
// file at the path are preserved across re-creation; a fresh socket gets
// 0666 so unprivileged local clients can connect.
func bindUnix(spec Spec, tlsConf *tls.Config) ([]Bound, error) {
	perms := os.FileMode(0666)
	if info, err := os.Stat(spec.Path); err == nil {
		perms = info.Mode().Perm()
		// net.Listen refuses to bind over an existing socket file.
		_ = os.Remove(spec.Path)
	}

	l, err := net.Listen("unix", spec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to bind unix socket %s: %w", spec.Path, err)
	}

	if err := os.Chmod(spec.Path, perms); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to restore permissions on %s: %w", spec.Path, err)
	}

	return []Bound{{
		Listener: maybeWrapTLS(l, tlsConf),
		Endpoint: fmt.Sprintf("unix socket %s", spec.Path),
	}}, nil
}

// bindTCP binds a host/port pair.
func bindTCP(spec Spec, tlsConf *tls.Config) ([]Bound, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(spec.Host, fmt.Sprintf("%d", spec.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s port %d: %w", spec.Host, spec.Port, err)
	}

	// An ephemeral port request resolves to the OS-assigned port.
	port := spec.Port
	if tcpAddr, ok := l.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	scheme := "http"
	if tlsConf != nil {
		scheme = "https"
	}

	return []Bound{{
		Listener: maybeWrapTLS(l, tlsConf),
		Endpoint: fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(spec.Host, fmt.Sprintf("%d", port))),
	}}, nil
}

func maybeWrapTLS(l net.Listener, tlsConf *tls.Config) net.Listener {
	if tlsConf == nil {
		return l
	}
	return tls.NewListener(l, tlsConf)
}
