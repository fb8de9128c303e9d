package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNewStdoutJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newLogger(Config{Level: "warn", Format: "json", Output: "stdout"}, &buf)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("screening failed", "handle", "@maya")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info line to be filtered, got %s", out)
	}
	if !strings.Contains(out, `"msg":"screening failed"`) || !strings.Contains(out, `"handle":"@maya"`) {
		t.Errorf("Unexpected JSON log line: %s", out)
	}
}

func TestNewBothWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "screener.log")
	cfg := DefaultConfig()
	cfg.Output = "both"
	cfg.FilePath = path

	logger, closer, err := newLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("batch finished", "approved", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "batch finished") {
		t.Errorf("Expected log file to contain message, got %s", data)
	}
	if !strings.Contains(buf.String(), "batch finished") {
		t.Errorf("Expected stdout to contain message, got %s", buf.String())
	}
}

func TestNewUnknownOutput(t *testing.T) {
	if _, _, err := New(Config{Output: "syslog"}); err == nil {
		t.Error("Expected error for unknown output")
	}
}

func TestTag(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Tag(ContextWithRunID(context.Background(), "run-42"), logger).Info("hello")
	if !strings.Contains(buf.String(), "run_id=run-42") {
		t.Errorf("Expected run_id attribute, got %s", buf.String())
	}
}

func TestTagWithoutRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Tag(context.Background(), logger).Info("hello")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("Expected no run_id attribute, got %s", buf.String())
	}
}
