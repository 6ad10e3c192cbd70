//go:build windows

package mcp

import "os"

// shutdownSignals stop a long-running server.
// Windows delivers only os.Interrupt (Ctrl+C); SIGTERM does not exist.
var shutdownSignals = []os.Signal{os.Interrupt}
