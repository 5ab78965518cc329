//go:build !unix

package server

import "os"

// handledSignals returns the termination signals that trigger graceful
// shutdown on this platform. The runtime delivers the platform's break
// signal as os.Interrupt.
func handledSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
