//go:build windows

package main

import "os"

// shutdownSignals stop a long-running server.
// Windows delivers only os.Interrupt (Ctrl+C); SIGTERM does not exist.
var shutdownSignals = []os.Signal{os.Interrupt}
