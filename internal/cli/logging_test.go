package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("test message", "key", "value")

	output := strings.TrimSpace(buf.String())
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected log output to contain 'test message', got: %s", output)
	}

	var jsonData map[string]interface{}
	if err := json.Unmarshal([]byte(output), &jsonData); err != nil {
		t.Fatalf("Log output is not valid JSON: %v, output: %s", err, output)
	}
	if _, ok := jsonData["timestamp"]; !ok {
		t.Errorf("Expected 'timestamp' field in JSON output, got: %v", jsonData)
	}
	if _, ok := jsonData["time"]; ok {
		t.Errorf("Expected 'time' field to be renamed, got: %v", jsonData)
	}
	if jsonData["key"] != "value" {
		t.Errorf("Expected key=value attribute, got: %v", jsonData)
	}
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn, got: %s", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn output, got: %s", buf.String())
	}
}

func TestParseLogLevelOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		levelStr string
		want     slog.Level
	}{
		{
			name:     "debug level",
			levelStr: "debug",
			want:     slog.LevelDebug,
		},
		{
			name:     "info level",
			levelStr: "info",
			want:     slog.LevelInfo,
		},
		{
			name:     "warn level",
			levelStr: "warn",
			want:     slog.LevelWarn,
		},
		{
			name:     "error level",
			levelStr: "error",
			want:     slog.LevelError,
		},
		{
			name:     "uppercase debug",
			levelStr: "DEBUG",
			want:     slog.LevelDebug,
		},
		{
			name:     "invalid level defaults to warn",
			levelStr: "invalid",
			want:     slog.LevelWarn,
		},
		{
			name:     "empty string defaults to warn",
			levelStr: "",
			want:     slog.LevelWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLogLevelOrDefault(tt.levelStr)
			if got != tt.want {
				t.Errorf("ParseLogLevelOrDefault(%q) = %v, want %v", tt.levelStr, got, tt.want)
			}
		})
	}
}
