package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{name: "trace", input: "trace", want: LevelTrace},
		{name: "trace uppercase", input: "TRACE", want: LevelTrace},
		{name: "debug", input: "debug", want: LevelDebug},
		{name: "info", input: "info", want: LevelInfo},
		{name: "warn", input: "warn", want: LevelWarn},
		{name: "error", input: "ERROR", want: LevelError},
		{name: "offset", input: "info+2", want: LevelInfo + 2},
		{name: "unknown falls back", input: "bogus", want: DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{name: "json", input: "json", want: FormatJSON},
		{name: "text", input: "text", want: FormatText},
		{name: "padded", input: "  JSON ", want: FormatJSON},
		{name: "unknown falls back", input: "yaml", want: DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestZeroValueLoggerDiscards(t *testing.T) {
	t.Parallel()

	var l Logger

	// Must not panic.
	l.Trace("trace")
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	if l.Level() != DefaultLevel {
		t.Errorf("zero value Level() = %v, want %v", l.Level(), DefaultLevel)
	}
}

func TestMakeLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	l := Make(buf, WithLevel(LevelWarn), WithTimeLayout("none"))

	l.Info("hidden")

	if buf.Len() != 0 {
		t.Fatalf("info message emitted below level: %q", buf.String())
	}

	l.Warn("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("warn message missing from output: %q", buf.String())
	}
}

func TestTraceLevelName(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	l := Make(buf, WithLevel(LevelTrace), WithTimeLayout("none"))

	l.Trace("lowest")

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("trace record not labeled TRACE: %q", buf.String())
	}
}

func TestWrapOverridesFormat(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	l := Make(buf).Wrap(WithFormat(FormatJSON), WithTimeLayout("none"))

	l.Info("hello")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("wrapped logger did not emit JSON: %q", buf.String())
	}
}
