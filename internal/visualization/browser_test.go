package visualization

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestBrowserTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080/", "http://localhost:8080/"},
		{"https://example.com/chart", "https://example.com/chart"},
		{"file:///tmp/chart.html", "file:///tmp/chart.html"},
	}
	for _, tt := range tests {
		got, err := browserTarget(tt.in)
		if err != nil {
			t.Fatalf("browserTarget(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("browserTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got, err := browserTarget("chart.html")
	if err != nil {
		t.Fatalf("browserTarget: %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/chart.html") {
		t.Errorf("browserTarget(chart.html) = %q", got)
	}
}

func TestOpenBrowser_UsesPlatformCommand(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
	default:
		t.Skipf("skipping on unsupported platform: %s", runtime.GOOS)
	}

	var gotName string
	var gotArgs []string
	orig := startCommand
	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}
	t.Cleanup(func() { startCommand = orig })

	path := filepath.Join(t.TempDir(), "chart.html")
	if err := OpenBrowser(path); err != nil {
		t.Fatalf("OpenBrowser: %v", err)
	}
	if gotName == "" {
		t.Fatal("no command started")
	}
	last := gotArgs[len(gotArgs)-1]
	if !strings.HasPrefix(last, "file://") {
		t.Errorf("opened %q, want a file:// URL", last)
	}
}
