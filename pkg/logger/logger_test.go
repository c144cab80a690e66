package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", &buf)

	l.Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at warn level for Info, got %q", buf.String())
	}

	l.Warn("should appear", "key", "value")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got %q", buf.String())
	}
}

func TestNewTextIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	l := NewText("debug", &buf)
	l.Debug("hello", "n", 1)

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected text handler output, got JSON-looking line: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected message in output, got %q", out)
	}
}

func TestSetDefaultAndHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("debug", &buf))
	defer SetDefault(New("info", &bytes.Buffer{}))

	Info("via package helper")
	if !strings.Contains(buf.String(), "via package helper") {
		t.Fatalf("expected message via package helper, got %q", buf.String())
	}
}
