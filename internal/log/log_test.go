package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Debug("hidden debug line")
	Info("visible info line", "channel", 3)

	out := buf.String()
	if strings.Contains(out, "hidden debug line") {
		t.Errorf("debug line written at INFO level: %q", out)
	}
	if !strings.Contains(out, "visible info line") {
		t.Errorf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "channel=3") {
		t.Errorf("expected channel=3 field, got %q", out)
	}
}

func TestErrorCarriesErr(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelError)

	Warn("dropped warning")
	Error("adc read failed", errors.New("boom"), "op", "ADC_GetAll")

	out := buf.String()
	if strings.Contains(out, "dropped warning") {
		t.Errorf("warn line written at ERROR level: %q", out)
	}
	for _, want := range []string{"adc read failed", "err=boom", "op=ADC_GetAll"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestOddKVIgnored(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelDebug)

	Debug("odd", "key", "value", "dangling")

	out := buf.String()
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected key=value in %q", out)
	}
	if strings.Contains(out, "dangling") {
		t.Errorf("dangling key should be dropped: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLevel(%q) error = %v, want error %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
