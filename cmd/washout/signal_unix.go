//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a long-running server. On Unix that is SIGINT and SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
