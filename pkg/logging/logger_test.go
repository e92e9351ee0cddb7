package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// resetGlobals points the package at a temp log directory and restores the
// original state when the test finishes.
func resetGlobals(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origSessionID := sessionID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // consume the Once so initLogDirectory keeps tempDir
	sessionID = ""
	sessionIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		sessionID = origSessionID
		sessionIDOnce = sync.Once{}
	})

	return tempDir
}

func TestNewLoggerWritesToSessionFile(t *testing.T) {
	tempDir := resetGlobals(t)

	logger, err := NewLogger("resolver")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Infof("resolved %s", "vehicles-nav-button")
	logger.Warnf("persist failed")

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "[resolver]") {
		t.Errorf("log entry missing component: %q", content)
	}
	if !strings.Contains(content, "[INFO] resolved vehicles-nav-button") {
		t.Errorf("log entry missing info line: %q", content)
	}
	if !strings.Contains(content, "[WARN] persist failed") {
		t.Errorf("log entry missing warn line: %q", content)
	}
	if filepath.Dir(logger.LogPath()) != tempDir {
		t.Errorf("log file in %s, want %s", filepath.Dir(logger.LogPath()), tempDir)
	}
}

func TestComponentsShareSessionFile(t *testing.T) {
	resetGlobals(t)

	a, err := NewLogger("collector")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer a.Close()

	b, err := NewLogger("healer")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer b.Close()

	if a.LogPath() != b.LogPath() {
		t.Errorf("components got different log files: %s vs %s", a.LogPath(), b.LogPath())
	}
	if a.SessionID() != b.SessionID() {
		t.Errorf("components got different session ids")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	resetGlobals(t)

	logger, err := NewLogger("db")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
