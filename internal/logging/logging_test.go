package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewWritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zapcore.InfoLevel)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Error("broke: %s", "disk")
	l.Close()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level:\n%s", out)
	}
	for _, want := range []string{"shown 2", "broke: disk", "session"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !l.Enabled() {
		t.Error("Enabled() = false for explicit logger")
	}
}

func TestRequestTruncates(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zapcore.DebugLevel)
	l.Request("stage", strings.Repeat("x", 600))
	if !strings.Contains(buf.String(), "...") {
		t.Errorf("long request not truncated:\n%s", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := Get()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(New(&buf, zapcore.DebugLevel))
	Get().Debug("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("Get() did not return the installed logger")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate long = %q", got)
	}
}
