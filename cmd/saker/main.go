package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/saker-io/saker/internal/logger"
	"github.com/saker-io/saker/pkg/config"
	"github.com/saker-io/saker/pkg/metrics"
	"github.com/saker-io/saker/pkg/server"
)

// statusConn is the built-in demo protocol: it answers every HTTP/1.x
// request with 204 No Content plus the server's default headers. Real
// deployments register their own protocol factory; this one exists so the
// binary is usable out of the box and exercises the full handler contract
// (registration, request counting, cooperative shutdown).
type statusConn struct {
	state   *server.State
	conn    net.Conn
	closing atomic.Bool
}

func newStatusConn(state *server.State, _ *config.Config, conn net.Conn) server.Connection {
	return &statusConn{state: state, conn: conn}
}

func (c *statusConn) Serve(ctx context.Context) {
	c.state.AddConnection(c)
	defer func() {
		_ = c.conn.Close()
		c.state.RemoveConnection(c)
	}()

	reader := bufio.NewReader(c.conn)
	for {
		if c.closing.Load() {
			return
		}

		// Request line, then headers up to the blank line. Bodies are not
		// expected by this demo protocol.
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" || line == "\n" {
				break
			}
		}

		resp := "HTTP/1.1 204 No Content\r\n"
		for _, h := range c.state.DefaultHeaders() {
			resp += fmt.Sprintf("%s: %s\r\n", h.Name, h.Value)
		}
		resp += "\r\n"

		if _, err := c.conn.Write([]byte(resp)); err != nil {
			return
		}
		c.state.IncRequests()
	}
}

// Shutdown asks the handler to stop after the in-flight exchange. The
// immediate read deadline unblocks a handler idling on keep-alive.
func (c *statusConn) Shutdown() {
	c.closing.Store(true)
	_ = c.conn.SetReadDeadline(time.Now())
}

func main() {
	// Server configuration flags
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/saker/config.yaml)")
	initConfig := flag.Bool("init-config", false, "Write the default config file and exit")
	host := flag.String("host", "", "Bind host (overrides config, selects tcp bind)")
	port := flag.Int("port", -1, "Bind port (overrides config, selects tcp bind)")
	uds := flag.String("uds", "", "Bind unix domain socket path (overrides config)")
	fd := flag.Int("fd", -1, "Bind pre-opened file descriptor (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	maxRequests := flag.Int("max-requests", 0, "Stop after this many requests (0 = unlimited)")
	tlsCert := flag.String("tls-cert", "", "Path to TLS certificate (PEM)")
	tlsKey := flag.String("tls-key", "", "Path to TLS private key (PEM)")
	enableMetrics := flag.Bool("metrics", false, "Enable Prometheus metrics collection")

	flag.Parse()

	if *initConfig {
		path, err := config.InitConfig(false)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// CLI flags take precedence over file and environment.
	switch {
	case *uds != "":
		cfg.Bind.Type = "unix"
		cfg.Bind.Unix["path"] = *uds
	case *fd >= 0:
		cfg.Bind.Type = "fd"
		cfg.Bind.FD["fd"] = *fd
	case *host != "" || *port >= 0:
		cfg.Bind.Type = "tcp"
		if *host != "" {
			cfg.Bind.TCP["host"] = *host
		}
		if *port >= 0 {
			cfg.Bind.TCP["port"] = *port
		}
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *maxRequests > 0 {
		cfg.Server.MaxRequests = *maxRequests
	}
	if *tlsCert != "" {
		cfg.TLS.CertFile = *tlsCert
		cfg.TLS.KeyFile = *tlsKey
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// The transport security context is built here, outside the lifecycle
	// core, and handed over opaquely.
	if cfg.TLS.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			log.Fatalf("Failed to load TLS certificate: %v", err)
		}
		cfg.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	srv := server.New(cfg)
	srv.RegisterProtocol(newStatusConn)

	if *enableMetrics {
		metrics.InitRegistry()
		srv.SetMetrics(metrics.NewServerMetrics())
	}

	if err := srv.Serve(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
