package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "reelforge.log")

	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("export started", String(FieldStrategy, "direct_copy"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "direct_copy") {
		t.Fatalf("log output missing attribute: %s", data)
	}
	if !strings.Contains(string(data), `"msg":"export started"`) {
		t.Fatalf("log output missing message: %s", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("must not panic", Error(nil))
}

func TestComponentLoggerToleratesNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "analyzer")
	logger.Info("ok")
}
