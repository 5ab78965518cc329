//go:build unix

package server

import (
	"os"
	"syscall"
)

// handledSignals returns the termination signals that trigger graceful
// shutdown on this platform.
func handledSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,    // SIGINT, sent by Ctrl+C
		syscall.SIGTERM, // sent by `kill <pid>`
	}
}
