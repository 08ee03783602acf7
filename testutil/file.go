package testutil

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

const (
	TestTimeout     = 30 * time.Second
	ShortTimeout    = 5 * time.Second
	PollingInterval = 10 * time.Millisecond
)

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// FreePort returns a TCP port that was free when the function returned.
func FreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	return ln.Addr().(*net.TCPAddr).Port
}

// PortOpen reports whether something accepts connections on the port.
func PortOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Eventually polls fn until it returns true or the context expires.
func Eventually(ctx context.Context, fn func() bool) bool {
	ticker := time.NewTicker(PollingInterval)
	defer ticker.Stop()

	for {
		if fn() {
			return true
		}
		select {
		case <-ctx.Done():
			return fn()
		case <-ticker.C:
		}
	}
}
