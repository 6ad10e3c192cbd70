package visualization

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// startCommand launches name with args without waiting. Tests replace it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// browserTarget turns a local file path into a file:// URL and passes
// http(s) and file URLs through unchanged.
func browserTarget(target string) (string, error) {
	for _, scheme := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(target, scheme) {
			return target, nil
		}
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// OpenBrowser opens a chart file or preview URL in the default browser.
// It supports Linux (xdg-open), macOS (open), and Windows (cmd start).
func OpenBrowser(target string) error {
	url, err := browserTarget(target)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "linux":
		return startCommand("xdg-open", url)
	case "darwin":
		return startCommand("open", url)
	case "windows":
		return startCommand("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
