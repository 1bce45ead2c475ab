package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
	errs    int
)

// DefaultPath is ~/.config/go-arp/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-arp", "debug.log")
}

// Enable starts debug logging to path (DefaultPath if empty)
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	file = f
	enabled = true

	// Write directly (can't call Log - we hold the mutex)
	write("debug", "=== Debug logging started ===")
	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// Error logs a recoverable error. Errors are counted even while logging is
// disabled so the UI can show that something went wrong.
func Error(category string, err error) {
	mu.Lock()
	errs++
	mu.Unlock()
	Log(category, "ERROR %v", err)
}

// Errors returns how many errors have been reported
func Errors() int {
	mu.Lock()
	defer mu.Unlock()
	return errs
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// write must be called with mu held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync() // flush immediately so we see logs even on crash
}
