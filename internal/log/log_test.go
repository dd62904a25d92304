package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriter(t *testing.T) {
	t.Setenv("GO_ENV", "")
	defer Discard()

	var buf bytes.Buffer
	InitWriter(&buf, "warn")

	Info("hidden")
	Warn("shown", "engine", "tail")
	With("component", "runner").Error("failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(out, "engine=tail") {
		t.Errorf("missing attribute in %q", out)
	}
	if !strings.Contains(out, "component=runner") {
		t.Errorf("missing With attribute in %q", out)
	}
}

func TestInitWriter_JSONInProduction(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	defer Discard()

	var buf bytes.Buffer
	InitWriter(&buf, "info")
	Info("hello", "n", 1)

	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
