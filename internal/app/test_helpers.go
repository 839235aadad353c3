package app

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. It returns the
// app together with its console and log buffers.
func SetupAppTest(t *testing.T, config *Config, opts ...Option) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	console := &SafeBuffer{}
	logs := &SafeBuffer{}
	config.LogLevel = "debug"
	opts = append([]Option{AsChild(false)}, opts...)
	testApp := NewApp(console, logs, config, opts...)

	t.Cleanup(func() {
		if os.Getenv("GRIDMAKE_TEST_LOGS") == "true" {
			t.Logf("--- Console for %s ---\n%s", t.Name(), console.String())
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, console, logs
}
